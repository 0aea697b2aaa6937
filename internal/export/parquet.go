package export

import (
	"encoding/json"
	"fmt"
	"io"

	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"go-fits-inspector/pkg/models"
)

// FormatParquet is a columnar export with snake_case column names
const FormatParquet = "parquet"

// parquetColumns maps record columns to Parquet names and physical types
var parquetColumns = []struct {
	column string
	name   string
	typ    string
}{
	{models.ColumnDateObs, "date_obs", "BYTE_ARRAY"},
	{models.ColumnDec, "dec", "DOUBLE"},
	{models.ColumnExpTime, "exptime", "DOUBLE"},
	{models.ColumnFilename, "filename", "BYTE_ARRAY"},
	{models.ColumnInstrume, "instrume", "BYTE_ARRAY"},
	{models.ColumnMJDObs, "mjd_obs", "DOUBLE"},
	{models.ColumnMOC, "moc", "BYTE_ARRAY"},
	{models.ColumnNAxis, "naxis", "BYTE_ARRAY"},
	{models.ColumnObject, "object", "BYTE_ARRAY"},
	{models.ColumnPolygon, "polygon", "BYTE_ARRAY"},
	{models.ColumnRA, "ra", "DOUBLE"},
	{models.ColumnRADESys, "radesys", "BYTE_ARRAY"},
	{models.ColumnTelescope, "telescop", "BYTE_ARRAY"},
}

// Parquet writes snappy-compressed Parquet. Optional values are nulls.
type Parquet struct{}

func (Parquet) Format() string { return FormatParquet }

func (Parquet) Write(w io.Writer, records []models.Metadata) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	pfw := writerfile.NewWriterFile(w)
	pw, err := writer.NewJSONWriter(parquetSchema(), pfw, 4)
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, md := range records {
		row, err := json.Marshal(parquetRow(md))
		if err != nil {
			_ = pw.WriteStop()
			return err
		}
		if err := pw.Write(string(row)); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("write %s: %w", md.Filename, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet flush: %w", err)
	}
	return pfw.Close()
}

func parquetSchema() string {
	fields := make([]map[string]string, 0, len(parquetColumns))
	for _, c := range parquetColumns {
		tag := fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", c.name, c.typ)
		if c.typ == "BYTE_ARRAY" {
			tag = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", c.name)
		}
		fields = append(fields, map[string]string{"Tag": tag})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func parquetRow(md models.Metadata) map[string]any {
	values := map[string]any{
		models.ColumnFilename:  md.Filename,
		models.ColumnNAxis:     md.NAxis,
		models.ColumnObject:    md.Object,
		models.ColumnRA:        md.RA,
		models.ColumnDec:       md.Dec,
		models.ColumnRADESys:   md.RADESys,
		models.ColumnDateObs:   md.DateObs,
		models.ColumnMJDObs:    md.MJDObs,
		models.ColumnExpTime:   md.ExpTime,
		models.ColumnInstrume:  md.Instrume,
		models.ColumnTelescope: md.Telescope,
		models.ColumnMOC:       md.MOC,
		models.ColumnPolygon:   md.Polygon,
	}
	row := make(map[string]any, len(parquetColumns))
	for _, c := range parquetColumns {
		row[c.name] = values[c.column]
	}
	return row
}

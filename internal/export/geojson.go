package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/venicegeo/geojson-go/geojson"

	"go-fits-inspector/internal/footprint"
	"go-fits-inspector/pkg/models"
)

// FormatGeoJSON is a FeatureCollection of image footprints
const FormatGeoJSON = "geojson"

// GeoJSON writes one Feature per record that has a footprint. Longitudes are
// RA wrapped to [-180, 180); every record field is a property.
type GeoJSON struct{}

func (GeoJSON) Format() string { return FormatGeoJSON }

func (GeoJSON) Write(w io.Writer, records []models.Metadata) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	features := make([]*geojson.Feature, 0, len(records))
	for _, md := range records {
		f, err := Feature(md)
		if err != nil {
			return err
		}
		if f != nil {
			features = append(features, f)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(geojson.NewFeatureCollection(features))
}

// Feature converts a record to a GeoJSON feature; nil when it has no footprint
func Feature(md models.Metadata) (*geojson.Feature, error) {
	if md.Polygon == nil {
		return nil, nil
	}
	corners, err := footprint.ParsePolygon(*md.Polygon)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", md.Filename, err)
	}
	if len(corners) < 3 {
		return nil, fmt.Errorf("%s: footprint has %d corners", md.Filename, len(corners))
	}

	ring := make([][]float64, 0, len(corners)+1)
	for _, c := range corners {
		lon := c.Lon
		if lon >= 180 {
			lon -= 360
		}
		ring = append(ring, []float64{lon, c.Lat})
	}
	ring = append(ring, ring[0])

	props := make(map[string]interface{}, len(models.Columns()))
	for col, cell := range md.Fields() {
		if cell != "" {
			props[col] = cell
		}
	}
	if md.RA != nil {
		props[models.ColumnRA] = *md.RA
		props[models.ColumnDec] = *md.Dec
	}
	props[models.ColumnExpTime] = md.ExpTime

	f := geojson.NewFeature(geojson.NewPolygon([][][]float64{ring}), md.Filename, props)
	f.Bbox = f.ForceBbox()
	return f, nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type extractOptions struct {
	output   string
	format   string
	workers  int
	mocDepth int
}

func newExtractCmd(a *app) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <source>",
		Short: "Extract metadata from every FITS file of a source",
		Long: `Extract reads every .fit/.fits file of a source and writes one record per
readable file. The source is a local directory, azure://container/prefix or
s3://bucket/prefix. Files that cannot be parsed are logged and skipped. When
no file yields a record nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, a, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "catalog.csv", "output file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "csv, parquet or geojson (default: from the output extension)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "parallel extractions (env: BATCH_WORKERS)")
	cmd.Flags().IntVar(&opts.mocDepth, "moc-depth", 0, "MOC max order (env: MOC_MAX_DEPTH)")
	return cmd
}

func runExtract(cmd *cobra.Command, a *app, opts *extractOptions, source string) error {
	if opts.workers > 0 {
		a.cfg.BatchWorkers = opts.workers
	}
	if opts.mocDepth > 0 {
		a.cfg.MOCMaxDepth = opts.mocDepth
	}
	c, err := a.container(cmd)
	if err != nil {
		return err
	}

	src, err := c.Factory().SourceFactory.CreateSource(source)
	if err != nil {
		return fmt.Errorf("open source %s: %w", source, err)
	}
	exp, err := c.Factory().ExporterFactory.CreateExporter(opts.format, opts.output)
	if err != nil {
		return err
	}

	res, err := c.Runner().Export(cmd.Context(), src, exp, opts.output)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Output == "" {
		fmt.Fprintf(out, "No valid FITS files in %s; nothing written (%d failed)\n", res.Source, len(res.Failed))
		return nil
	}
	fmt.Fprintf(out, "Wrote %d records to %s (%d failed)\n", len(res.Records), res.Output, len(res.Failed))
	return nil
}

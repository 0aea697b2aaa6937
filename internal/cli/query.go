package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"go-fits-inspector/internal/catalog"
	"go-fits-inspector/internal/skycoord"
)

type queryOptions struct {
	ra, dec     float64
	object      string
	maxDistance int
}

func newQueryCmd(a *app) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query <catalog.csv>",
		Short: "Search an exported CSV catalog",
		Long: `Query prints the catalog records, one JSON object per line, whose footprint
covers --ra/--dec (ICRS degrees) or whose object name is within
--max-distance edits of --object.`,
		Example: `  fitsinspect query catalog.csv --ra 10.68 --dec 41.27
  fitsinspect query catalog.csv --object "M 31" --max-distance 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, a, opts, args[0])
		},
	}

	cmd.Flags().Float64Var(&opts.ra, "ra", 0, "right ascension in degrees")
	cmd.Flags().Float64Var(&opts.dec, "dec", 0, "declination in degrees")
	cmd.Flags().StringVar(&opts.object, "object", "", "object name to search for")
	cmd.Flags().IntVar(&opts.maxDistance, "max-distance", 2, "maximum edit distance for --object")
	cmd.MarkFlagsRequiredTogether("ra", "dec")
	cmd.MarkFlagsMutuallyExclusive("ra", "object")
	cmd.MarkFlagsOneRequired("ra", "object")
	return cmd
}

func runQuery(cmd *cobra.Command, a *app, opts *queryOptions, path string) error {
	c, err := a.container(cmd)
	if err != nil {
		return err
	}
	cat, err := catalog.LoadFile(path, c.Logger())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.object != "" {
		for _, m := range cat.SearchObject(opts.object, opts.maxDistance) {
			if err := enc.Encode(m); err != nil {
				return err
			}
		}
		return nil
	}

	records, err := cat.Covering(skycoord.Coord{Lon: opts.ra, Lat: opts.dec})
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	for _, md := range records {
		if err := enc.Encode(md); err != nil {
			return err
		}
	}
	return nil
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"go-fits-inspector/pkg/geometry"
)

func newContainsCmd() *cobra.Command {
	var (
		point     string
		polygon   string
		normalize bool
	)
	cmd := &cobra.Command{
		Use:   "contains",
		Short: "Test whether a point lies inside a convex polygon",
		Example: `  fitsinspect contains --point 0.5,0.5 --polygon "0,0 0,1 1,1 1,0"
  fitsinspect contains --point 0.5,0.5 --polygon "1,0 1,1 0,1 0,0" --normalize`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := parsePoint(point)
			if err != nil {
				return fmt.Errorf("--point: %w", err)
			}
			var vertices []geometry.Point
			for _, field := range strings.Fields(polygon) {
				v, err := parsePoint(field)
				if err != nil {
					return fmt.Errorf("--polygon: %w", err)
				}
				vertices = append(vertices, v)
			}
			if normalize {
				if err := geometry.Validate(vertices); err != nil {
					return fmt.Errorf("--polygon: %w", err)
				}
				vertices = geometry.Clockwise(vertices)
			}

			fmt.Fprintln(cmd.OutOrStdout(), geometry.Contains(p, vertices))
			return nil
		},
	}

	cmd.Flags().StringVar(&point, "point", "", "point as x,y")
	cmd.Flags().StringVar(&polygon, "polygon", "", "clockwise vertices as space separated x,y pairs")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "check convexity and reorder the vertices clockwise")
	_ = cmd.MarkFlagRequired("point")
	_ = cmd.MarkFlagRequired("polygon")
	return cmd
}

func parsePoint(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point{}, err
	}
	return geometry.Point{X: x, Y: y}, nil
}

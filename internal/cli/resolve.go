package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Standardize object names with the Sesame resolver",
		Long: `Resolve prints one standardized name per argument. Names that cannot be
resolved are printed unchanged; empty or "unknown" names print Unknown.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd)
			if err != nil {
				return err
			}
			for _, name := range args {
				fmt.Fprintln(cmd.OutOrStdout(), c.Resolver().Resolve(cmd.Context(), name))
			}
			return nil
		},
	}
}

// Package cli implements the fitsinspect command line.
package cli

import (
	"github.com/spf13/cobra"

	"go-fits-inspector/internal/config"
	"go-fits-inspector/internal/container"
)

type app struct {
	configFile string
	logLevel   string
	cfg        *config.Config
}

// NewRootCmd builds the fitsinspect command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fitsinspect",
		Short: "Homogenize FITS image metadata",
		Long: `fitsinspect reads FITS image headers, normalizes their position, time and
exposure metadata, derives sky footprints (MOC and polygon) and exports the
records as CSV, Parquet or GeoJSON.`,
		PersistentPreRunE: a.loadConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "path to a config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (env: LOG_LEVEL)")

	root.AddCommand(
		newExtractCmd(a),
		newContainsCmd(),
		newResolveCmd(a),
		newQueryCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) loadConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	return nil
}

func (a *app) container(cmd *cobra.Command) (*container.Container, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return container.NewContainer(a.cfg, cmd.ErrOrStderr())
}

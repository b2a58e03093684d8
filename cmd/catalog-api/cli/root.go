package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/m3-catalog/pkg/config"
)

// VersionInfo is stamped at build time.
type VersionInfo struct {
	Version string
	Commit  string
}

type configKey struct{}

func NewRootCommand(info VersionInfo) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "catalog-api",
		Short:         "M3 media catalog service",
		Long:          "Catalog of medias, typed tags, taggings and tag hierarchies backed by PostgreSQL.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}

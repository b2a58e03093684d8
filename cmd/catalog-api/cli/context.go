package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/noah-isme/m3-catalog/pkg/config"
)

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	cfg, _ := config.Load()
	return cfg
}

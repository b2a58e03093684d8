package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/pkg/database"
	"github.com/noah-isme/m3-catalog/pkg/logger"
)

func NewResetCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset-db",
		Short: "Drop every catalog table and recreate the empty schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to drop the catalog without --yes")
			}
			cfg := configFrom(cmd)

			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.NewPostgres(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect database: %w", err)
			}
			defer db.Close()

			if err := database.Reset(cmd.Context(), db); err != nil {
				return err
			}
			logr.Info("catalog schema recreated", zap.String("database", cfg.Database.Name))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive reset")
	return cmd
}

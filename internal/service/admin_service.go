package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/pkg/database"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
)

// AdminService exposes destructive maintenance operations.
type AdminService struct {
	db      sqlx.ExecerContext
	enabled bool
	logger  *zap.Logger
}

// NewAdminService creates an admin service; reset is refused unless enabled.
func NewAdminService(db sqlx.ExecerContext, enabled bool, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{db: db, enabled: enabled, logger: logger}
}

// ResetDatabase drops every catalog relation and recreates the empty schema.
func (s *AdminService) ResetDatabase(ctx context.Context) error {
	if !s.enabled {
		return appErrors.Clone(appErrors.ErrForbidden, "database reset is disabled")
	}
	if err := database.Reset(ctx, s.db); err != nil {
		return appErrors.Storage(err, "reset database")
	}
	s.logger.Warn("database reset")
	return nil
}

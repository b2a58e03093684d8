package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/noah-isme/m3-catalog/pkg/database"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
)

// lookupError maps a repository read failure onto NOT_FOUND or STORAGE_FAILURE.
func lookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Storage(err, "load "+entity)
}

// referenceError maps a failed lookup of a referenced row onto INVALID_REFERENCE.
func referenceError(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("%s %d does not exist", entity, id))
	}
	return appErrors.Storage(err, "load "+entity)
}

// writeError classifies an insert failure. Unique violations are left to the
// caller, which re-fetches the concurrently created row.
func writeError(err error, op string) error {
	if database.IsForeignKeyViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrInvalidReference.Code, appErrors.ErrInvalidReference.Status,
			fmt.Sprintf("%s: referenced entity does not exist", op))
	}
	return appErrors.Storage(err, op)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

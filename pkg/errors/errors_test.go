package errors

import (
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsComparesCodes(t *testing.T) {
	err := fmt.Errorf("load node: %w", Clone(ErrNotFound, "node 7 not found"))

	assert.True(t, stdErrors.Is(err, ErrNotFound))
	assert.False(t, stdErrors.Is(err, ErrConflict))
	assert.True(t, HasCode(err, "NOT_FOUND"))
}

func TestCloneKeepsOriginalIntact(t *testing.T) {
	clone := Clone(ErrConflict, "tagset exists with another type")

	assert.Equal(t, "conflict", ErrConflict.Message)
	assert.Equal(t, "tagset exists with another type", clone.Message)
	assert.Equal(t, http.StatusConflict, clone.Status)
	assert.NotSame(t, ErrConflict, Clone(ErrConflict, ""))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	assert.Nil(t, FromError(nil))

	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)

	typed := Clone(ErrTypeMismatch, "")
	assert.Same(t, typed, FromError(fmt.Errorf("wrapped: %w", typed)))
}

func TestStorageSurfacesDriverMessage(t *testing.T) {
	err := Storage(stdErrors.New("connection reset"), "insert tag")

	assert.Equal(t, "STORAGE_FAILURE", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, "insert tag: connection reset", err.Message)
}

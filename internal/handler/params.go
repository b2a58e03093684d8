package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/m3-catalog/internal/models"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
	"github.com/noah-isme/m3-catalog/pkg/response"
)

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a positive integer, got %q", name, raw))
	}
	return id, nil
}

// queryID parses an optional non-negative integer query parameter; absent yields 0.
func queryID(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a non-negative integer, got %q", name, raw))
	}
	return id, nil
}

// pageRequest reads page and limit; malformed values fall back to the service defaults.
func pageRequest(c *gin.Context) models.PageRequest {
	var p models.PageRequest
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		p.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		p.PageSize = limit
	}
	return p
}

func queryFileType(c *gin.Context) (models.FileType, error) {
	raw := c.Query("file_type")
	if raw == "" {
		return 0, nil
	}
	ft, err := models.ParseFileType(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error())
	}
	return ft, nil
}

func queryTagType(c *gin.Context) (models.TagType, error) {
	raw := c.Query("tag_type")
	if raw == "" {
		return 0, nil
	}
	tt, err := models.ParseTagType(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error())
	}
	return tt, nil
}

// createdOrOK answers 201 for a new row and 200 when it already existed.
func createdOrOK(c *gin.Context, data interface{}, created bool) {
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.JSON(c, status, data, nil, map[string]interface{}{"created": created})
}

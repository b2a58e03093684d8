package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/internal/service"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
	"github.com/noah-isme/m3-catalog/pkg/response"
)

type mediaService interface {
	CreateOrGet(ctx context.Context, req service.CreateMediaRequest) (*models.Media, bool, error)
	Get(ctx context.Context, id int64) (*models.Media, error)
	GetByURI(ctx context.Context, uri string) (*models.Media, error)
	List(ctx context.Context, filter models.MediaFilter) ([]models.Media, *models.Pagination, error)
	Delete(ctx context.Context, id int64) error
}

// MediaHandler handles media endpoints.
type MediaHandler struct {
	service mediaService
}

// NewMediaHandler constructs a media handler.
func NewMediaHandler(svc mediaService) *MediaHandler {
	return &MediaHandler{service: svc}
}

// Create godoc
// @Summary Create or get a media by URI
// @Tags Medias
// @Accept json
// @Produce json
// @Param payload body service.CreateMediaRequest true "Media payload"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /medias [post]
func (h *MediaHandler) Create(c *gin.Context) {
	var req service.CreateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	media, created, err := h.service.CreateOrGet(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	createdOrOK(c, media, created)
}

// List godoc
// @Summary List medias
// @Tags Medias
// @Produce json
// @Param file_type query string false "image, audio, video or other"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /medias [get]
func (h *MediaHandler) List(c *gin.Context) {
	fileType, err := queryFileType(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	medias, pagination, err := h.service.List(c.Request.Context(), models.MediaFilter{FileType: fileType, PageRequest: pageRequest(c)})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, medias, pagination)
}

// Get godoc
// @Summary Get media by id
// @Tags Medias
// @Produce json
// @Param id path int true "Media ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /medias/{id} [get]
func (h *MediaHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	media, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, media, nil)
}

// GetByURI godoc
// @Summary Get media by URI
// @Tags Medias
// @Produce json
// @Param uri query string true "File URI"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /medias/by-uri [get]
func (h *MediaHandler) GetByURI(c *gin.Context) {
	uri := strings.TrimSpace(c.Query("uri"))
	if uri == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "uri is required"))
		return
	}
	media, err := h.service.GetByURI(c.Request.Context(), uri)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, media, nil)
}

// Delete godoc
// @Summary Delete media and its taggings
// @Tags Medias
// @Produce json
// @Param id path int true "Media ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /medias/{id} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

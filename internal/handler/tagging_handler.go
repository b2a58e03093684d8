package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/internal/service"
	"github.com/noah-isme/m3-catalog/pkg/response"
)

type taggingService interface {
	Create(ctx context.Context, req service.CreateTaggingRequest) (*models.Tagging, bool, error)
	TagsOfMedia(ctx context.Context, mediaID int64, page models.PageRequest) ([]int64, *models.Pagination, error)
	MediasWithTag(ctx context.Context, tagID int64, page models.PageRequest) ([]int64, *models.Pagination, error)
	List(ctx context.Context, page models.PageRequest) ([]models.Tagging, *models.Pagination, error)
}

// TaggingHandler handles media/tag association endpoints.
type TaggingHandler struct {
	service taggingService
}

func NewTaggingHandler(svc taggingService) *TaggingHandler {
	return &TaggingHandler{service: svc}
}

// Create godoc
// @Summary Tag a media
// @Tags Taggings
// @Accept json
// @Produce json
// @Param payload body service.CreateTaggingRequest true "Tagging payload"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /taggings [post]
func (h *TaggingHandler) Create(c *gin.Context) {
	var req service.CreateTaggingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	tagging, created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	createdOrOK(c, tagging, created)
}

// List godoc
// @Summary List taggings
// @Tags Taggings
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /taggings [get]
func (h *TaggingHandler) List(c *gin.Context) {
	taggings, pagination, err := h.service.List(c.Request.Context(), pageRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, taggings, pagination)
}

// TagsOfMedia godoc
// @Summary List tag ids attached to a media
// @Tags Taggings
// @Produce json
// @Param id path int true "Media ID"
// @Success 200 {object} response.Envelope
// @Router /medias/{id}/tags [get]
func (h *TaggingHandler) TagsOfMedia(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	ids, pagination, err := h.service.TagsOfMedia(c.Request.Context(), id, pageRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, ids, pagination)
}

// MediasWithTag godoc
// @Summary List media ids carrying a tag
// @Tags Taggings
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} response.Envelope
// @Router /tags/{id}/medias [get]
func (h *TaggingHandler) MediasWithTag(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	ids, pagination, err := h.service.MediasWithTag(c.Request.Context(), id, pageRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, ids, pagination)
}

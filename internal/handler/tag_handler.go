package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/internal/service"
	"github.com/noah-isme/m3-catalog/pkg/response"
)

type tagService interface {
	CreateOrGet(ctx context.Context, req service.CreateTagRequest) (*models.Tag, bool, error)
	Get(ctx context.Context, id int64) (*models.Tag, error)
	List(ctx context.Context, filter models.TagFilter) ([]models.Tag, *models.Pagination, error)
}

// TagHandler handles tag endpoints.
type TagHandler struct {
	service tagService
}

// NewTagHandler constructs a tag handler.
func NewTagHandler(svc tagService) *TagHandler {
	return &TagHandler{service: svc}
}

// Create godoc
// @Summary Create or get a tag by (tagset, value)
// @Tags Tags
// @Accept json
// @Produce json
// @Param payload body service.CreateTagRequest true "Tag payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /tags [post]
func (h *TagHandler) Create(c *gin.Context) {
	var req service.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	tag, created, err := h.service.CreateOrGet(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	createdOrOK(c, tag, created)
}

// List godoc
// @Summary List tags
// @Tags Tags
// @Produce json
// @Param tag_type query string false "Tag type"
// @Param tagset_id query int false "TagSet ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tags [get]
func (h *TagHandler) List(c *gin.Context) {
	tagType, err := queryTagType(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	tagSetID, err := queryID(c, "tagset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	tags, pagination, err := h.service.List(c.Request.Context(), models.TagFilter{TagType: tagType, TagSetID: tagSetID, PageRequest: pageRequest(c)})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, tags, pagination)
}

// Get godoc
// @Summary Get tag by id
// @Tags Tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} response.Envelope
// @Router /tags/{id} [get]
func (h *TagHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	tag, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tag, nil)
}

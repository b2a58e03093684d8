package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/internal/service"
	"github.com/noah-isme/m3-catalog/pkg/response"
)

type tagSetService interface {
	CreateOrGet(ctx context.Context, req service.CreateTagSetRequest) (*models.TagSet, bool, error)
	Get(ctx context.Context, id int64) (*models.TagSet, error)
	GetByName(ctx context.Context, name string) (*models.TagSet, error)
	List(ctx context.Context, filter models.TagSetFilter) ([]models.TagSet, *models.Pagination, error)
}

// TagSetHandler handles tagset endpoints.
type TagSetHandler struct {
	service tagSetService
}

// NewTagSetHandler constructs a tagset handler.
func NewTagSetHandler(svc tagSetService) *TagSetHandler {
	return &TagSetHandler{service: svc}
}

// Create godoc
// @Summary Create or get a tagset by name
// @Tags TagSets
// @Accept json
// @Produce json
// @Param payload body service.CreateTagSetRequest true "TagSet payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tagsets [post]
func (h *TagSetHandler) Create(c *gin.Context) {
	var req service.CreateTagSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	set, created, err := h.service.CreateOrGet(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	createdOrOK(c, set, created)
}

// List godoc
// @Summary List tagsets
// @Tags TagSets
// @Produce json
// @Param tag_type query string false "Tag type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tagsets [get]
func (h *TagSetHandler) List(c *gin.Context) {
	tagType, err := queryTagType(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	sets, pagination, err := h.service.List(c.Request.Context(), models.TagSetFilter{TagType: tagType, PageRequest: pageRequest(c)})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, sets, pagination)
}

// Get godoc
// @Summary Get tagset by id
// @Tags TagSets
// @Produce json
// @Param id path int true "TagSet ID"
// @Success 200 {object} response.Envelope
// @Router /tagsets/{id} [get]
func (h *TagSetHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	set, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, set, nil)
}

// GetByName godoc
// @Summary Get tagset by name
// @Tags TagSets
// @Produce json
// @Param name path string true "TagSet name"
// @Success 200 {object} response.Envelope
// @Router /tagsets/by-name/{name} [get]
func (h *TagSetHandler) GetByName(c *gin.Context) {
	set, err := h.service.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, set, nil)
}

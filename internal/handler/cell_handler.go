package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/m3-catalog/internal/models"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
	"github.com/noah-isme/m3-catalog/pkg/response"
)

type cellService interface {
	State(ctx context.Context, q models.CellQuery) ([]models.Cell, error)
	Objects(ctx context.Context, q models.CellObjectQuery) ([]models.CubeObject, *models.Pagination, error)
	Timeline(ctx context.Context, mediaID, tagSetID int64, window time.Duration) ([]models.TimelineEntry, error)
}

// CellHandler serves faceted browsing.
type CellHandler struct {
	service cellService
}

// NewCellHandler constructs a cell handler.
func NewCellHandler(svc cellService) *CellHandler {
	return &CellHandler{service: svc}
}

// State godoc
// @Summary Group medias into cells along up to three axes
// @Tags Cells
// @Accept json
// @Produce json
// @Param payload body models.CellQuery true "Axes and filters"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /cells [post]
func (h *CellHandler) State(c *gin.Context) {
	var q models.CellQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	cells, err := h.service.State(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cells, nil)
}

// Objects godoc
// @Summary List the medias of one cell
// @Tags Cells
// @Accept json
// @Produce json
// @Param payload body models.CellObjectQuery true "Filters locating the cell"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cells/objects [post]
func (h *CellHandler) Objects(c *gin.Context) {
	var q models.CellObjectQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	q.PageRequest = pageRequest(c)
	objects, pagination, err := h.service.Objects(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, objects, pagination)
}

// Timeline godoc
// @Summary Medias stamped near a media's timestamp
// @Tags Cells
// @Produce json
// @Param id path int true "Media ID"
// @Param tagset_id query int true "Timestamp tagset ID"
// @Param window query string false "Half-width of the window, e.g. 30m"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /medias/{id}/timeline [get]
func (h *CellHandler) Timeline(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	tagSetID, err := queryID(c, "tagset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if tagSetID == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "tagset_id is required"))
		return
	}
	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		if window, err = time.ParseDuration(raw); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window %q is not a duration", raw)))
			return
		}
	}
	entries, err := h.service.Timeline(c.Request.Context(), id, tagSetID, window)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

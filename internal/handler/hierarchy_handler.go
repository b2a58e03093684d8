package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/internal/service"
	"github.com/noah-isme/m3-catalog/pkg/response"
)

type hierarchyService interface {
	CreateOrGet(ctx context.Context, req service.CreateHierarchyRequest) (*models.Hierarchy, bool, error)
	Get(ctx context.Context, id int64) (*models.Hierarchy, error)
	List(ctx context.Context, filter models.HierarchyFilter) ([]models.Hierarchy, *models.Pagination, error)
	AddNode(ctx context.Context, req service.AddNodeRequest) (*models.Node, bool, error)
	DeleteNode(ctx context.Context, id int64) (*service.NodeDeletion, error)
	GetNode(ctx context.Context, id int64) (*models.Node, error)
	ListNodes(ctx context.Context, filter models.NodeFilter) ([]models.Node, *models.Pagination, error)
	Children(ctx context.Context, id int64, page models.PageRequest) ([]models.Node, *models.Pagination, error)
}

// HierarchyHandler handles hierarchy and node endpoints.
type HierarchyHandler struct {
	service hierarchyService
}

// NewHierarchyHandler constructs a hierarchy handler.
func NewHierarchyHandler(svc hierarchyService) *HierarchyHandler {
	return &HierarchyHandler{service: svc}
}

// Create godoc
// @Summary Create or get a hierarchy by (name, tagset)
// @Tags Hierarchies
// @Accept json
// @Produce json
// @Param payload body service.CreateHierarchyRequest true "Hierarchy payload"
// @Success 201 {object} response.Envelope
// @Router /hierarchies [post]
func (h *HierarchyHandler) Create(c *gin.Context) {
	var req service.CreateHierarchyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	hierarchy, created, err := h.service.CreateOrGet(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	createdOrOK(c, hierarchy, created)
}

// List godoc
// @Summary List hierarchies
// @Tags Hierarchies
// @Produce json
// @Param tagset_id query int false "TagSet ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /hierarchies [get]
func (h *HierarchyHandler) List(c *gin.Context) {
	tagSetID, err := queryID(c, "tagset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), models.HierarchyFilter{TagSetID: tagSetID, PageRequest: pageRequest(c)})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, pagination)
}

// Get godoc
// @Summary Get hierarchy by id
// @Tags Hierarchies
// @Produce json
// @Param id path int true "Hierarchy ID"
// @Success 200 {object} response.Envelope
// @Router /hierarchies/{id} [get]
func (h *HierarchyHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	hierarchy, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hierarchy, nil)
}

// AddNode godoc
// @Summary Add a node; omit parent_node_id to add the root
// @Tags Nodes
// @Accept json
// @Produce json
// @Param payload body service.AddNodeRequest true "Node payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /nodes [post]
func (h *HierarchyHandler) AddNode(c *gin.Context) {
	var req service.AddNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	node, created, err := h.service.AddNode(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	createdOrOK(c, node, created)
}

// ListNodes godoc
// @Summary List nodes
// @Tags Nodes
// @Produce json
// @Param hierarchy_id query int false "Hierarchy ID"
// @Param tag_id query int false "Tag ID"
// @Param parent_node_id query int false "Parent node ID"
// @Param root query bool false "Only parentless nodes"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /nodes [get]
func (h *HierarchyHandler) ListNodes(c *gin.Context) {
	var (
		filter models.NodeFilter
		err    error
	)
	if filter.HierarchyID, err = queryID(c, "hierarchy_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.TagID, err = queryID(c, "tag_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.ParentNodeID, err = queryID(c, "parent_node_id"); err != nil {
		response.Error(c, err)
		return
	}
	filter.RootOnly = c.Query("root") == "true"
	filter.PageRequest = pageRequest(c)

	nodes, pagination, err := h.service.ListNodes(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, nodes, pagination)
}

// GetNode godoc
// @Summary Get node by id
// @Tags Nodes
// @Produce json
// @Param id path int true "Node ID"
// @Success 200 {object} response.Envelope
// @Router /nodes/{id} [get]
func (h *HierarchyHandler) GetNode(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	node, err := h.service.GetNode(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, node, nil)
}

// Children godoc
// @Summary List direct children of a node
// @Tags Nodes
// @Produce json
// @Param id path int true "Node ID"
// @Success 200 {object} response.Envelope
// @Router /nodes/{id}/children [get]
func (h *HierarchyHandler) Children(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	nodes, pagination, err := h.service.Children(c.Request.Context(), id, pageRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, nodes, pagination)
}

// DeleteNode godoc
// @Summary Delete a node, re-parenting its children
// @Tags Nodes
// @Produce json
// @Param id path int true "Node ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /nodes/{id} [delete]
func (h *HierarchyHandler) DeleteNode(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.DeleteNode(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

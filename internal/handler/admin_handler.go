package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/m3-catalog/pkg/response"
)

type adminService interface {
	ResetDatabase(ctx context.Context) error
}

// AdminHandler exposes maintenance endpoints.
type AdminHandler struct {
	service adminService
}

func NewAdminHandler(svc adminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// Reset godoc
// @Summary Drop and recreate the catalog schema
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/reset [post]
func (h *AdminHandler) Reset(c *gin.Context) {
	if err := h.service.ResetDatabase(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "reset"}, nil)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/checkoutpos/billing-api/internal/application/service"
	"github.com/checkoutpos/billing-api/internal/presentation/http/dto/request"
	"github.com/checkoutpos/billing-api/internal/presentation/http/dto/response"
	"github.com/checkoutpos/billing-api/pkg/change"
)

// DrawerHandler handles cash drawer HTTP requests
type DrawerHandler struct {
	drawerService *service.DrawerService
}

// NewDrawerHandler creates a new drawer handler
func NewDrawerHandler(drawerService *service.DrawerService) *DrawerHandler {
	return &DrawerHandler{drawerService: drawerService}
}

// List handles listing the drawer's denomination counts
func (h *DrawerHandler) List(c *gin.Context) {
	denominations, err := h.drawerService.ListDenominations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Drawer retrieved successfully", denominations)
}

// Replace handles swapping the drawer contents wholesale
func (h *DrawerHandler) Replace(c *gin.Context) {
	var req request.ReplaceDrawerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	counts := make(change.Ledger, len(req.Denominations))
	for _, d := range req.Denominations {
		counts[d.Value] += d.Count
	}

	if err := h.drawerService.ReplaceDrawer(c.Request.Context(), counts); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Drawer replaced successfully", counts)
}

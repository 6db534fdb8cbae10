package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dreamhome/web/internal/api/middleware"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/purchases"
	"dreamhome/web/internal/services"
)

// UserDashboardData is what user_dashboard.html renders.
type UserDashboardData struct {
	Purchases []models.Purchase
	Summary   purchases.Summary
}

// AdminDashboardData is what admin_dashboard.html renders.
type AdminDashboardData struct {
	Stats         *models.DashboardStats
	PropertyStats *models.PropertyStats
	System        *models.SystemInfo
	Sales         purchases.Summary
}

// SalesData is what admin_sales.html renders.
type SalesData struct {
	Purchases      []models.Purchase
	Summary        purchases.Summary
	Average        float64
	PropertiesSold int
}

// DashboardHandler serves the user dashboard and the admin overview pages.
type DashboardHandler struct {
	render *Renderer
	admin  services.IAdminService
	ledger purchases.IPurchaseLedger
	logger *zap.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(render *Renderer, admin services.IAdminService, ledger purchases.IPurchaseLedger, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{render: render, admin: admin, ledger: ledger, logger: logger}
}

// UserDashboard handles GET /user/dashboard.
func (h *DashboardHandler) UserDashboard(c *gin.Context) {
	s := middleware.CurrentSession(c)
	records, err := h.ledger.ListByBuyer(c.Request.Context(), s.User.ID)
	p := h.render.Page(c, "My Dashboard", UserDashboardData{Purchases: records, Summary: purchases.Totals(records)})
	if err != nil {
		h.logger.Error("failed to load purchases", zap.Int64("buyer_id", s.User.ID), zap.Error(err))
		p.Error = "Failed to load your purchases"
	}
	h.render.HTML(c, http.StatusOK, "user_dashboard.html", p)
}

// AdminDashboard handles GET /admin/dashboard. Only the main statistics are
// required; the property breakdown, system info and sales are best effort.
func (h *DashboardHandler) AdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	var data AdminDashboardData
	var errMsg string

	stats, err := h.admin.GetDashboardStats(ctx)
	if err != nil {
		h.logger.Error("failed to load dashboard stats", zap.Error(err))
		errMsg = messageOf(err, "Failed to fetch dashboard stats")
	} else {
		data.Stats = stats
	}

	if ps, err := h.admin.GetPropertyStats(ctx); err != nil {
		h.logger.Warn("failed to load property stats", zap.Error(err))
	} else {
		data.PropertyStats = ps
	}
	if info, err := h.admin.GetSystemInfo(ctx); err != nil {
		h.logger.Warn("failed to load system info", zap.Error(err))
	} else {
		data.System = info
	}
	if records, err := h.ledger.ListAll(ctx); err != nil {
		h.logger.Warn("failed to load sales", zap.Error(err))
	} else {
		data.Sales = purchases.Totals(records)
	}

	p := h.render.Page(c, "Dashboard", data)
	p.Error = errMsg
	h.render.HTML(c, http.StatusOK, "admin_dashboard.html", p)
}

// Sales handles GET /admin/sales.
func (h *DashboardHandler) Sales(c *gin.Context) {
	records, err := h.ledger.ListAll(c.Request.Context())
	data := SalesData{Purchases: records, Summary: purchases.Totals(records)}
	if data.Summary.Count > 0 {
		data.Average = data.Summary.Revenue / float64(data.Summary.Count)
	}
	sold := make(map[int64]struct{}, len(records))
	for _, r := range records {
		sold[r.PropertyID] = struct{}{}
	}
	data.PropertiesSold = len(sold)

	p := h.render.Page(c, "Sales", data)
	if err != nil {
		h.logger.Error("failed to load sales", zap.Error(err))
		p.Error = "Failed to load sales"
	}
	h.render.HTML(c, http.StatusOK, "admin_sales.html", p)
}

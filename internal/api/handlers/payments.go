package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dreamhome/web/internal/api/middleware"
	"dreamhome/web/internal/client"
	"dreamhome/web/internal/payment"
	"dreamhome/web/internal/services"
)

// OrderRequest starts a purchase of one property.
type OrderRequest struct {
	PropertyID int64 `json:"propertyId" binding:"required"`
}

// PaymentHandler is the JSON glue between the checkout widget and Checkout.
type PaymentHandler struct {
	checkout   *payment.Checkout
	properties services.IPropertyService
	logger     *zap.Logger
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(checkout *payment.Checkout, properties services.IPropertyService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{checkout: checkout, properties: properties, logger: logger}
}

// CreateOrder handles POST /payments/order and answers with the widget
// configuration.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if !s.IsLoggedIn() {
		sendErrorResponse(c, http.StatusUnauthorized, "Please log in to purchase")
		return
	}
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "propertyId is required")
		return
	}

	property, err := h.properties.GetPropertyByID(c.Request.Context(), req.PropertyID)
	if err != nil {
		if client.IsNotFound(err) {
			sendErrorResponse(c, http.StatusNotFound, "Property not found")
			return
		}
		sendErrorResponse(c, http.StatusBadGateway, messageOf(err, "Failed to fetch property"))
		return
	}

	attempt, err := h.checkout.Initiate(c.Request.Context(), *property, s.User)
	switch {
	case errors.Is(err, payment.ErrNotPurchasable):
		sendErrorResponse(c, http.StatusConflict, attempt.Error)
	case err != nil:
		sendErrorResponse(c, http.StatusBadGateway, attempt.Error)
	default:
		sendSuccessResponse(c, attempt)
	}
}

// Verify handles POST /payments/verify with the widget's success payload.
func (h *PaymentHandler) Verify(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if !s.IsLoggedIn() {
		sendErrorResponse(c, http.StatusUnauthorized, "Please log in to purchase")
		return
	}
	var conf payment.Confirmation
	if err := c.ShouldBindJSON(&conf); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "Invalid payment confirmation")
		return
	}

	purchase, err := h.checkout.Verify(c.Request.Context(), conf, s.User)
	switch {
	case errors.Is(err, payment.ErrInvalidConfirmation):
		sendErrorResponse(c, http.StatusBadRequest, "Invalid payment confirmation")
	case errors.Is(err, payment.ErrPaymentNotSettled):
		sendErrorResponse(c, http.StatusPaymentRequired, "Payment verification failed")
	case err != nil:
		h.logger.Error("failed to complete purchase", zap.String("order_id", conf.OrderID), zap.Error(err))
		sendErrorResponse(c, http.StatusInternalServerError, "Payment received but the purchase could not be recorded. Please contact support.")
	default:
		sendSuccessResponse(c, purchase)
	}
}

// Package payment starts purchases through the hosted checkout widget and
// verifies them with the backend before anything is recorded.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/services"
	"go.uber.org/zap"
)

var (
	// ErrNotPurchasable is returned for properties that are not AVAILABLE.
	ErrNotPurchasable = errors.New("property is not available for purchase")
	// ErrPaymentNotSettled is returned when the backend does not confirm the payment.
	ErrPaymentNotSettled = errors.New("payment not settled")
	// ErrInvalidConfirmation is returned for widget callbacks missing ids.
	ErrInvalidConfirmation = errors.New("invalid payment confirmation")
)

// Stage is the purchase flow state shown on the detail page.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageOrderRequested Stage = "order-requested"
	StageWidgetOpened   Stage = "widget-opened"
	StageOrderFailed    Stage = "order-failed"
)

// Widget defaults.
const (
	MerchantName = "DreamHome"
	DefaultTheme = "#6366F1"
)

// settledStatuses are the gateway statuses that count as paid.
var settledStatuses = map[string]bool{"captured": true, "paid": true, "success": true}

// Prefill is the buyer data shown in the widget.
type Prefill struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// WidgetTheme is the widget color scheme.
type WidgetTheme struct {
	Color string `json:"color"`
}

// WidgetConfig is handed to the checkout widget script as-is.
type WidgetConfig struct {
	Key         string      `json:"key"`
	Amount      int64       `json:"amount"`
	Currency    string      `json:"currency"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OrderID     string      `json:"order_id"`
	Prefill     Prefill     `json:"prefill"`
	Theme       WidgetTheme `json:"theme"`
}

// Attempt is the outcome of Initiate.
type Attempt struct {
	Stage  Stage         `json:"stage"`
	Widget *WidgetConfig `json:"widget,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Confirmation is what the widget reports back after the buyer paid.
type Confirmation struct {
	PropertyID int64  `json:"propertyId" form:"propertyId"`
	OrderID    string `json:"razorpay_order_id" form:"razorpay_order_id"`
	PaymentID  string `json:"razorpay_payment_id" form:"razorpay_payment_id"`
	Signature  string `json:"razorpay_signature" form:"razorpay_signature"`
}

// Ledger records settled purchases.
type Ledger interface {
	Record(ctx context.Context, p *models.Purchase) (*models.Purchase, error)
}

// ReceiptQueue schedules the purchase receipt email.
type ReceiptQueue interface {
	EnqueueReceipt(ctx context.Context, p models.Purchase) error
}

// Options configures a Checkout.
type Options struct {
	KeyID    string
	Currency string
	Theme    string
}

// Checkout drives the purchase flow of one detail page.
type Checkout struct {
	payments   services.IPaymentService
	properties services.IPropertyService
	ledger     Ledger
	receipts   ReceiptQueue
	opts       Options
	logger     *zap.Logger
	now        func() time.Time
}

// NewCheckout creates a Checkout. receipts may be nil.
func NewCheckout(payments services.IPaymentService, properties services.IPropertyService, ledger Ledger, receipts ReceiptQueue, opts Options, logger *zap.Logger) *Checkout {
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.Theme == "" {
		opts.Theme = DefaultTheme
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checkout{
		payments:   payments,
		properties: properties,
		ledger:     ledger,
		receipts:   receipts,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Initiate requests an order for property and returns the widget
// configuration. Order failures come back as an Attempt in StageOrderFailed
// together with the error.
func (c *Checkout) Initiate(ctx context.Context, property models.Property, buyer models.User) (*Attempt, error) {
	if !property.IsAvailable() {
		return &Attempt{Stage: StageIdle, Error: "This property is not available for purchase"}, ErrNotPurchasable
	}

	attempt := &Attempt{Stage: StageOrderRequested}
	order, err := c.payments.CreateOrder(ctx, property.Price, c.opts.Currency)
	if err != nil {
		c.logger.Error("failed to create order", zap.Int64("property_id", property.ID), zap.Error(err))
		attempt.Stage = StageOrderFailed
		attempt.Error = "Failed to initiate payment"
		return attempt, client.Normalize(err, "Failed to create payment order")
	}

	currency := order.Currency
	if currency == "" {
		currency = c.opts.Currency
	}
	attempt.Stage = StageWidgetOpened
	attempt.Widget = &WidgetConfig{
		Key:         c.opts.KeyID,
		Amount:      order.Amount,
		Currency:    currency,
		Name:        MerchantName,
		Description: property.Title,
		OrderID:     order.ID,
		Prefill:     Prefill{Name: buyer.DisplayName(), Email: buyer.Email},
		Theme:       WidgetTheme{Color: c.opts.Theme},
	}
	c.logger.Info("checkout opened",
		zap.Int64("property_id", property.ID),
		zap.String("order_id", order.ID),
		zap.Int64("amount", order.Amount))
	return attempt, nil
}

// Verify confirms the payment with the backend, records the purchase and
// queues the receipt. Anything short of a settled payment for the same order,
// amount and currency yields ErrPaymentNotSettled.
func (c *Checkout) Verify(ctx context.Context, conf Confirmation, buyer models.User) (*models.Purchase, error) {
	conf.OrderID = strings.TrimSpace(conf.OrderID)
	conf.PaymentID = strings.TrimSpace(conf.PaymentID)
	if conf.OrderID == "" || conf.PaymentID == "" || conf.PropertyID == 0 {
		return nil, ErrInvalidConfirmation
	}

	status, err := c.payments.GetPaymentStatus(ctx, conf.PaymentID)
	if err != nil {
		c.logger.Error("failed to verify payment", zap.String("payment_id", conf.PaymentID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentNotSettled, client.Normalize(err, "Failed to fetch payment status"))
	}
	if !settledStatuses[strings.ToLower(status.Status)] || status.OrderID != conf.OrderID {
		c.logger.Warn("payment not settled",
			zap.String("payment_id", conf.PaymentID),
			zap.String("order_id", conf.OrderID),
			zap.String("reported_order_id", status.OrderID),
			zap.String("status", status.Status))
		return nil, ErrPaymentNotSettled
	}

	property, err := c.properties.GetPropertyByID(ctx, conf.PropertyID)
	if err != nil {
		return nil, client.Normalize(err, "Failed to fetch property")
	}

	// The captured payment must cover this property's order, not merely some order.
	currency := status.Currency
	if currency == "" {
		currency = c.opts.Currency
	}
	if status.Amount != services.OrderAmount(property.Price) || !strings.EqualFold(currency, c.opts.Currency) {
		c.logger.Warn("payment does not match property",
			zap.String("payment_id", conf.PaymentID),
			zap.Int64("property_id", property.ID),
			zap.Int64("captured_amount", status.Amount),
			zap.Int64("expected_amount", services.OrderAmount(property.Price)),
			zap.String("currency", currency))
		return nil, ErrPaymentNotSettled
	}
	purchase, err := c.ledger.Record(ctx, &models.Purchase{
		OrderID:       conf.OrderID,
		PaymentID:     conf.PaymentID,
		PropertyID:    property.ID,
		PropertyTitle: property.Title,
		BuyerID:       buyer.ID,
		BuyerName:     buyer.DisplayName(),
		BuyerEmail:    buyer.Email,
		Amount:        property.Price,
		Currency:      currency,
		PurchaseDate:  c.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	if c.receipts != nil && purchase.BuyerEmail != "" {
		if err := c.receipts.EnqueueReceipt(ctx, *purchase); err != nil {
			c.logger.Warn("failed to queue receipt", zap.String("order_id", purchase.OrderID), zap.Error(err))
		}
	}
	c.logger.Info("purchase verified", zap.String("order_id", purchase.OrderID), zap.Int64("property_id", purchase.PropertyID))
	return purchase, nil
}

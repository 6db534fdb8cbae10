package services

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
)

// IPaymentService talks to the backend's payment gateway proxy.
type IPaymentService interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (*models.OrderDescriptor, error)
	GetPaymentStatus(ctx context.Context, paymentID string) (*models.PaymentStatus, error)
}

type paymentService struct {
	api *client.Client
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(api *client.Client) IPaymentService {
	return &paymentService{api: api}
}

// OrderAmount is the whole-unit amount an order for price is created with.
func OrderAmount(price float64) int64 {
	return int64(math.Round(price))
}

// CreateOrder asks the backend for an order. The backend accepts whole units only.
func (s *paymentService) CreateOrder(ctx context.Context, amount float64, currency string) (*models.OrderDescriptor, error) {
	q := url.Values{
		"amount":   {strconv.FormatInt(OrderAmount(amount), 10)},
		"currency": {currency},
	}
	var order models.OrderDescriptor
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodPost,
		Path:           "/payments/create-order",
		Query:          q,
		DefaultMessage: "Failed to create payment order",
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *paymentService) GetPaymentStatus(ctx context.Context, paymentID string) (*models.PaymentStatus, error) {
	var status models.PaymentStatus
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           "/payments/status/" + url.PathEscape(paymentID),
		DefaultMessage: "Failed to fetch payment status",
	}, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

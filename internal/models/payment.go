package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderDescriptor is the backend-issued payment intent consumed by the
// checkout widget.
type OrderDescriptor struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
}

// PaymentStatus is returned by GET /payments/status/{id}.
type PaymentStatus struct {
	ID       string `json:"id"`
	OrderID  string `json:"orderId"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// UnmarshalJSON accepts both the camelCase backend shape and the gateway's
// snake_case order_id.
func (p *PaymentStatus) UnmarshalJSON(data []byte) error {
	type plain PaymentStatus
	var aux struct {
		plain
		GatewayOrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = PaymentStatus(aux.plain)
	if p.OrderID == "" {
		p.OrderID = aux.GatewayOrderID
	}
	return nil
}

// Purchase is a settled sale recorded by this front-end once the backend
// confirmed the payment.
type Purchase struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderID       string             `bson:"order_id" json:"orderId"`
	PaymentID     string             `bson:"payment_id" json:"paymentId"`
	PropertyID    int64              `bson:"property_id" json:"propertyId"`
	PropertyTitle string             `bson:"property_title" json:"propertyTitle"` // Denormalized for display
	BuyerID       int64              `bson:"buyer_id" json:"buyerId"`
	BuyerName     string             `bson:"buyer_name" json:"buyerName"`
	BuyerEmail    string             `bson:"buyer_email" json:"buyerEmail"`
	Amount        float64            `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	PurchaseDate  time.Time          `bson:"purchase_date" json:"purchaseDate"`
}

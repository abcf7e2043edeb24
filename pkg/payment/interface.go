package payment

import (
	"context"
)

// Provider is the settlement gateway. PathGo quotes GST-inclusive fares
// in INR; the gateway order carries the total, the GST split lives on
// the transaction record.
type Provider interface {
	CreateOrder(ctx context.Context, request *OrderRequest) (*OrderResponse, error)
	VerifyPayment(ctx context.Context, request *VerifyRequest) error
	RefundPayment(ctx context.Context, request *RefundRequest) (*RefundResponse, error)
	ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

type OrderRequest struct {
	Amount    float64           `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Notes     map[string]string `json:"notes"`
}

type OrderResponse struct {
	OrderID   string  `json:"order_id"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CreatedAt int64   `json:"created_at"`
}

type VerifyRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type RefundRequest struct {
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
}

type RefundResponse struct {
	RefundID  string  `json:"refund_id"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	CreatedAt int64   `json:"created_at"`
}

type WebhookEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt int64                  `json:"created_at"`
}

package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/razorpay/razorpay-go"
)

// RazorpayProvider is the primary gateway for INR settlements.
type RazorpayProvider struct {
	client        *razorpay.Client
	keySecret     string
	webhookSecret string
}

func NewRazorpayProvider(keyID, keySecret, webhookSecret string) *RazorpayProvider {
	return &RazorpayProvider{
		client:        razorpay.NewClient(keyID, keySecret),
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

func (r *RazorpayProvider) CreateOrder(ctx context.Context, request *OrderRequest) (*OrderResponse, error) {
	orderData := map[string]interface{}{
		"amount":   int(request.Amount * 100), // paise
		"currency": request.Currency,
		"receipt":  request.Receipt,
		"notes":    request.Notes,
	}

	order, err := r.client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return &OrderResponse{
		OrderID:   order["id"].(string),
		Status:    "created",
		Amount:    request.Amount,
		Currency:  request.Currency,
		CreatedAt: time.Now().Unix(),
	}, nil
}

// VerifyPayment checks the checkout signature Razorpay returns to the
// client: HMAC-SHA256(order_id|payment_id, key_secret).
func (r *RazorpayProvider) VerifyPayment(ctx context.Context, request *VerifyRequest) error {
	payload := request.OrderID + "|" + request.PaymentID
	expected := hmacSHA256(payload, r.keySecret)
	if !hmac.Equal([]byte(request.Signature), []byte(expected)) {
		return fmt.Errorf("payment signature mismatch")
	}
	return nil
}

func (r *RazorpayProvider) RefundPayment(ctx context.Context, request *RefundRequest) (*RefundResponse, error) {
	amount := int(request.Amount * 100)
	refundData := map[string]interface{}{
		"notes": map[string]interface{}{"reason": request.Reason},
	}

	refund, err := r.client.Payment.Refund(request.PaymentID, amount, refundData, map[string]string{})
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return &RefundResponse{
		RefundID:  refund["id"].(string),
		Status:    refund["status"].(string),
		Amount:    request.Amount,
		CreatedAt: time.Now().Unix(),
	}, nil
}

func (r *RazorpayProvider) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	expected := hmacSHA256(string(payload), r.webhookSecret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return nil, fmt.Errorf("invalid webhook signature")
	}

	var event map[string]interface{}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %w", err)
	}

	eventType, _ := event["event"].(string)
	eventID, _ := event["id"].(string)

	return &WebhookEvent{
		EventID:   eventID,
		EventType: eventType,
		Data:      event,
		CreatedAt: time.Now().Unix(),
	}, nil
}

func hmacSHA256(payload, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

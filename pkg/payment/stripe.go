package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProvider is the secondary gateway, used for card settlements
// where Razorpay is unavailable.
type StripeProvider struct {
	client        *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeProvider{
		client:        sc,
		webhookSecret: webhookSecret,
	}
}

func (s *StripeProvider) CreateOrder(ctx context.Context, request *OrderRequest) (*OrderResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(int64(request.Amount * 100)),
		Currency:    stripe.String(request.Currency),
		Description: stripe.String(request.Receipt),
	}
	for key, value := range request.Notes {
		params.AddMetadata(key, value)
	}

	pi, err := s.client.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &OrderResponse{
		OrderID:   pi.ID,
		Status:    string(pi.Status),
		Amount:    float64(pi.Amount) / 100,
		Currency:  string(pi.Currency),
		CreatedAt: pi.Created,
	}, nil
}

func (s *StripeProvider) VerifyPayment(ctx context.Context, request *VerifyRequest) error {
	pi, err := s.client.PaymentIntents.Get(request.OrderID, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("payment intent status is %s", pi.Status)
	}
	return nil
}

func (s *StripeProvider) RefundPayment(ctx context.Context, request *RefundRequest) (*RefundResponse, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(request.PaymentID),
		Reason:        stripe.String(request.Reason),
	}
	if request.Amount > 0 {
		params.Amount = stripe.Int64(int64(request.Amount * 100))
	}

	refund, err := s.client.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return &RefundResponse{
		RefundID:  refund.ID,
		Status:    string(refund.Status),
		Amount:    float64(refund.Amount) / 100,
		CreatedAt: refund.Created,
	}, nil
}

func (s *StripeProvider) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signature: %w", err)
	}

	data := map[string]interface{}{
		"object": event.Data.Object,
	}

	return &WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Data:      data,
		CreatedAt: event.Created,
	}, nil
}

package sms

import "context"

type Provider interface {
	SendSMS(ctx context.Context, request *Request) (*Response, error)
}

type Request struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
	Type    string `json:"type"` // transactional, otp
}

type Response struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Fallback tries each provider in order and returns the first success.
// Used to back Twilio with SNS for login OTP delivery.
type Fallback struct {
	providers []Provider
}

func NewFallback(providers ...Provider) *Fallback {
	return &Fallback{providers: providers}
}

func (f *Fallback) SendSMS(ctx context.Context, request *Request) (*Response, error) {
	var lastErr error
	for _, p := range f.providers {
		resp, err := p.SendSMS(ctx, request)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return &Response{Status: "failed"}, lastErr
}

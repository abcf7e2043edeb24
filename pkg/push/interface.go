package push

import "context"

// Provider sends device push notifications. PathGo uses FCM for Android
// and APNs for iOS, selected by the token platform recorded on the user.
type Provider interface {
	SendNotification(ctx context.Context, req *Notification) (*Result, error)
	SendBulkNotifications(ctx context.Context, reqs []*Notification) ([]*Result, error)
}

type Notification struct {
	Token    string            `json:"token"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Badge    int               `json:"badge,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

type Result struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
}

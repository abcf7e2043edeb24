package push

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/token"
)

type APNSProvider struct {
	client *apns2.Client
	topic  string
}

func NewAPNSProvider(keyFile, keyID, teamID, topic string, production bool) (*APNSProvider, error) {
	authKey, err := token.AuthKeyFromFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth key: %w", err)
	}

	tokenProvider := &token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	}

	client := apns2.NewTokenClient(tokenProvider)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSProvider{client: client, topic: topic}, nil
}

func (a *APNSProvider) SendNotification(ctx context.Context, req *Notification) (*Result, error) {
	notification := a.buildNotification(req)

	resp, err := a.client.PushWithContext(ctx, notification)
	if err != nil {
		return &Result{Success: false, Error: err.Error(), Token: req.Token}, err
	}

	if resp.Sent() {
		return &Result{MessageID: resp.ApnsID, Success: true, Token: req.Token}, nil
	}

	return &Result{Success: false, Error: resp.Reason, Token: req.Token},
		fmt.Errorf("APNS error: %s", resp.Reason)
}

func (a *APNSProvider) SendBulkNotifications(ctx context.Context, reqs []*Notification) ([]*Result, error) {
	results := make([]*Result, len(reqs))

	for i, req := range reqs {
		result, err := a.SendNotification(ctx, req)
		if err != nil {
			result = &Result{Success: false, Error: err.Error(), Token: req.Token}
		}
		results[i] = result
	}

	return results, nil
}

func (a *APNSProvider) buildNotification(req *Notification) *apns2.Notification {
	aps := map[string]interface{}{
		"alert": map[string]interface{}{
			"title": req.Title,
			"body":  req.Body,
		},
	}

	if req.Sound != "" {
		aps["sound"] = req.Sound
	}
	if req.Badge > 0 {
		aps["badge"] = req.Badge
	}

	payload := map[string]interface{}{"aps": aps}
	for k, v := range req.Data {
		payload[k] = v
	}

	notification := &apns2.Notification{
		DeviceToken: req.Token,
		Topic:       a.topic,
		Payload:     payload,
	}
	if req.Priority == "normal" {
		notification.Priority = apns2.PriorityLow
	} else {
		notification.Priority = apns2.PriorityHigh
	}

	return notification
}

package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type FCMProvider struct {
	client *messaging.Client
}

func NewFCMProvider(credentialsFile string) (*FCMProvider, error) {
	ctx := context.Background()

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMProvider{client: client}, nil
}

func (f *FCMProvider) SendNotification(ctx context.Context, req *Notification) (*Result, error) {
	msg := f.buildMessage(req)

	id, err := f.client.Send(ctx, msg)
	if err != nil {
		return &Result{Success: false, Error: err.Error(), Token: req.Token}, err
	}

	return &Result{MessageID: id, Success: true, Token: req.Token}, nil
}

func (f *FCMProvider) SendBulkNotifications(ctx context.Context, reqs []*Notification) ([]*Result, error) {
	messages := make([]*messaging.Message, len(reqs))
	for i, req := range reqs {
		messages[i] = f.buildMessage(req)
	}

	batch, err := f.client.SendAll(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to send bulk notifications: %w", err)
	}

	results := make([]*Result, len(reqs))
	for i, resp := range batch.Responses {
		if resp.Success {
			results[i] = &Result{MessageID: resp.MessageID, Success: true, Token: reqs[i].Token}
		} else {
			results[i] = &Result{Success: false, Error: resp.Error.Error(), Token: reqs[i].Token}
		}
	}

	return results, nil
}

func (f *FCMProvider) buildMessage(req *Notification) *messaging.Message {
	msg := &messaging.Message{
		Token: req.Token,
		Notification: &messaging.Notification{
			Title: req.Title,
			Body:  req.Body,
		},
		Data: req.Data,
	}

	android := &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:     req.Sound,
			ChannelID: "pathgo_rides",
		},
	}
	if req.Priority == "normal" {
		android.Priority = "normal"
	}
	msg.Android = android

	return msg
}

package services

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/pkg/logger"
	"pathgo/pkg/push"
	"pathgo/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService fans events out to the user's open websocket and,
// as a push notification, to their registered device. Delivery is best
// effort; failures are logged, never propagated into the ride flow.
type NotificationService interface {
	NotifyUser(ctx context.Context, userID primitive.ObjectID, eventType, title, body string, data map[string]interface{})
	NotifyRide(ctx context.Context, rideID primitive.ObjectID, eventType string, data map[string]interface{})
}

type notificationService struct {
	userRepo interfaces.UserRepository
	ws       *websocket.Handler
	push     push.Provider
	logger   *logger.Logger
}

func NewNotificationService(userRepo interfaces.UserRepository, ws *websocket.Handler, pushProvider push.Provider, logger *logger.Logger) NotificationService {
	return &notificationService{
		userRepo: userRepo,
		ws:       ws,
		push:     pushProvider,
		logger:   logger,
	}
}

func (s *notificationService) NotifyUser(ctx context.Context, userID primitive.ObjectID, eventType, title, body string, data map[string]interface{}) {
	s.ws.SendUserNotification(userID, eventType, data)

	if s.push == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user.DeviceToken == "" {
		return
	}

	stringData := make(map[string]string, len(data)+1)
	stringData["type"] = eventType
	for k, v := range data {
		if str, ok := v.(string); ok {
			stringData[k] = str
		}
	}

	_, err = s.push.SendNotification(ctx, &push.Notification{
		Token: user.DeviceToken,
		Title: title,
		Body:  body,
		Data:  stringData,
	})
	if err != nil {
		s.logger.WithError(err).WithUserID(userID).Warn("push notification failed")
	}
}

func (s *notificationService) NotifyRide(ctx context.Context, rideID primitive.ObjectID, eventType string, data map[string]interface{}) {
	s.ws.SendRideUpdate(rideID, eventType, data)
}

// rideEventData is the websocket payload shared by every lifecycle
// broadcast; settlement state rides along so clients never derive it.
func rideEventData(ride *models.Ride) map[string]interface{} {
	return map[string]interface{}{
		"ride_id":        ride.ID.Hex(),
		"status":         string(ride.Status),
		"payment_status": string(ride.PaymentStatus),
		"settlement_due": ride.SettlementDue(),
		"fare":           ride.Fare,
		"version":        ride.Version,
	}
}

package services

import (
	"context"
	"errors"
	"time"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"
	"pathgo/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GarageRequestInput struct {
	VehicleType string          `json:"vehicle_type" validate:"required"`
	Issue       string          `json:"issue" validate:"required"`
	Location    models.Location `json:"location" validate:"required"`
}

// ResQService runs the roadside assistance flow: a stranded user raises
// a request, nearby mechanics see it, one accepts and works it to
// completion. Same CAS discipline as rides, simpler lifecycle.
type ResQService interface {
	RequestAssistance(ctx context.Context, userID primitive.ObjectID, input *GarageRequestInput) (*models.GarageRequest, error)
	NearbyOpenRequests(ctx context.Context, mechanicUserID primitive.ObjectID, radiusKM float64) ([]*models.GarageRequest, error)
	AcceptRequest(ctx context.Context, requestID, mechanicUserID primitive.ObjectID) (*models.GarageRequest, error)
	MarkEnRoute(ctx context.Context, requestID, mechanicUserID primitive.ObjectID) (*models.GarageRequest, error)
	CompleteRequest(ctx context.Context, requestID, mechanicUserID primitive.ObjectID, charge float64) (*models.GarageRequest, error)
	CancelRequest(ctx context.Context, requestID, userID primitive.ObjectID) (*models.GarageRequest, error)
	NearbyMechanics(ctx context.Context, center models.Location, radiusKM float64) ([]*models.Mechanic, error)
	UserRequests(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GarageRequest, int64, error)
	MechanicRequests(ctx context.Context, mechanicUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GarageRequest, int64, error)
}

type resqService struct {
	mechanicRepo interfaces.MechanicRepository
	requestRepo  interfaces.GarageRequestRepository
	userRepo     interfaces.UserRepository
	txnRepo      interfaces.TransactionRepository
	notify       NotificationService
	logger       *logger.Logger
}

func NewResQService(
	mechanicRepo interfaces.MechanicRepository,
	requestRepo interfaces.GarageRequestRepository,
	userRepo interfaces.UserRepository,
	txnRepo interfaces.TransactionRepository,
	notify NotificationService,
	logger *logger.Logger,
) ResQService {
	return &resqService{
		mechanicRepo: mechanicRepo,
		requestRepo:  requestRepo,
		userRepo:     userRepo,
		txnRepo:      txnRepo,
		notify:       notify,
		logger:       logger,
	}
}

func (s *resqService) RequestAssistance(ctx context.Context, userID primitive.ObjectID, input *GarageRequestInput) (*models.GarageRequest, error) {
	if _, err := s.requestRepo.GetOpenByUser(ctx, userID); err == nil {
		return nil, ErrActiveRideExists
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	req := &models.GarageRequest{
		UserID:      userID,
		VehicleType: input.VehicleType,
		Issue:       input.Issue,
		Location:    input.Location,
		UserName:    user.Name,
		UserPhone:   user.Phone,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	// Ping every available mechanic in range; first to accept wins the
	// CAS on requested -> accepted.
	mechanics, err := s.mechanicRepo.FindNearby(ctx, input.Location, utils.DefaultSearchRadius, 10)
	if err != nil {
		s.logger.WithError(err).Warn("failed to find nearby mechanics")
	}
	for _, m := range mechanics {
		s.notify.NotifyUser(ctx, m.UserID, "garage_request", "Breakdown nearby",
			input.VehicleType+": "+input.Issue, map[string]interface{}{
				"request_id": req.ID.Hex(),
				"issue":      req.Issue,
			})
	}

	s.logger.WithField("request_id", req.ID.Hex()).Info("garage request created")
	return req, nil
}

func (s *resqService) NearbyOpenRequests(ctx context.Context, mechanicUserID primitive.ObjectID, radiusKM float64) ([]*models.GarageRequest, error) {
	mechanic, err := s.mechanicRepo.GetByUserID(ctx, mechanicUserID)
	if err != nil {
		return nil, err
	}

	// Open requests are unassigned; filter by distance from the garage.
	open, err := s.requestRepo.ListOpen(ctx, 50)
	if err != nil {
		return nil, err
	}

	var nearby []*models.GarageRequest
	for _, req := range open {
		if utils.IsWithinRadiusKM(
			mechanic.Location.Latitude(), mechanic.Location.Longitude(),
			req.Location.Latitude(), req.Location.Longitude(), radiusKM) {
			nearby = append(nearby, req)
		}
	}
	return nearby, nil
}

func (s *resqService) AcceptRequest(ctx context.Context, requestID, mechanicUserID primitive.ObjectID) (*models.GarageRequest, error) {
	mechanic, err := s.mechanicRepo.GetByUserID(ctx, mechanicUserID)
	if err != nil {
		return nil, err
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updated, err := s.requestRepo.Transition(ctx, requestID, models.GarageRequestRequested, req.Version,
		models.GarageRequestAccepted, map[string]interface{}{
			"mechanic_id":   mechanic.ID,
			"mechanic_name": mechanic.GarageName,
			"accepted_at":   now,
		})
	if err != nil {
		if errors.Is(err, interfaces.ErrStaleWrite) {
			return nil, ErrOfferClosed
		}
		return nil, err
	}

	s.notify.NotifyUser(ctx, updated.UserID, "garage_accepted", "Help is on the way",
		mechanic.GarageName+" accepted your request", map[string]interface{}{
			"request_id": updated.ID.Hex(),
			"status":     string(updated.Status),
		})
	return updated, nil
}

func (s *resqService) MarkEnRoute(ctx context.Context, requestID, mechanicUserID primitive.ObjectID) (*models.GarageRequest, error) {
	return s.mechanicTransition(ctx, requestID, mechanicUserID,
		models.GarageRequestAccepted, models.GarageRequestEnRoute, nil, "garage_en_route")
}

func (s *resqService) CompleteRequest(ctx context.Context, requestID, mechanicUserID primitive.ObjectID, charge float64) (*models.GarageRequest, error) {
	now := time.Now()
	updated, err := s.mechanicTransition(ctx, requestID, mechanicUserID,
		models.GarageRequestEnRoute, models.GarageRequestCompleted,
		map[string]interface{}{"charge": charge, "completed_at": now}, "garage_completed")
	if err != nil {
		return nil, err
	}

	breakup := utils.SplitFareGST(charge, utils.GSTRate)
	txn := &models.Transaction{
		Kind:      models.TransactionKindGarageCharge,
		Status:    models.TransactionSucceeded,
		UserID:    updated.UserID,
		PartnerID: updated.MechanicID,
		RefID:     updated.ID,
		Amount:    charge,
		BaseFare:  breakup.Base,
		GST:       breakup.GST,
		Currency:  utils.DefaultCurrency,
		Method:    models.PaymentMethodCash,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		s.logger.WithError(err).Error("failed to record garage transaction")
	}

	return updated, nil
}

func (s *resqService) CancelRequest(ctx context.Context, requestID, userID primitive.ObjectID) (*models.GarageRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, ErrNotRideOwner
	}
	if !req.Status.CanTransition(models.GarageRequestCancelled) {
		return nil, ErrRideConflict
	}

	updated, err := s.requestRepo.Transition(ctx, requestID, req.Status, req.Version,
		models.GarageRequestCancelled, nil)
	if err != nil {
		if errors.Is(err, interfaces.ErrStaleWrite) {
			return nil, ErrRideConflict
		}
		return nil, err
	}
	return updated, nil
}

func (s *resqService) NearbyMechanics(ctx context.Context, center models.Location, radiusKM float64) ([]*models.Mechanic, error) {
	return s.mechanicRepo.FindNearby(ctx, center, radiusKM, 20)
}

func (s *resqService) UserRequests(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GarageRequest, int64, error) {
	return s.requestRepo.GetByUser(ctx, userID, params)
}

func (s *resqService) MechanicRequests(ctx context.Context, mechanicUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GarageRequest, int64, error) {
	mechanic, err := s.mechanicRepo.GetByUserID(ctx, mechanicUserID)
	if err != nil {
		return nil, 0, err
	}
	return s.requestRepo.GetByMechanic(ctx, mechanic.ID, params)
}

func (s *resqService) mechanicTransition(ctx context.Context, requestID, mechanicUserID primitive.ObjectID, from, to models.GarageRequestStatus, updates map[string]interface{}, event string) (*models.GarageRequest, error) {
	mechanic, err := s.mechanicRepo.GetByUserID(ctx, mechanicUserID)
	if err != nil {
		return nil, err
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.MechanicID == nil || *req.MechanicID != mechanic.ID {
		return nil, ErrNotRideOwner
	}

	updated, err := s.requestRepo.Transition(ctx, requestID, from, req.Version, to, updates)
	if err != nil {
		if errors.Is(err, interfaces.ErrStaleWrite) {
			return nil, ErrRideConflict
		}
		return nil, err
	}

	s.notify.NotifyUser(ctx, updated.UserID, event, "", "", map[string]interface{}{
		"request_id": updated.ID.Hex(),
		"status":     string(updated.Status),
	})
	return updated, nil
}

package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"
	"pathgo/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dispatcher is the search loop the ride service hands freshly created
// rides to. Implemented by DispatchService; split out to keep the
// dependency one-directional.
type Dispatcher interface {
	StartSearch(ride *models.Ride)
	CancelSearch(rideID primitive.ObjectID)
}

type RideRequest struct {
	Pickup      models.Location      `json:"pickup" validate:"required"`
	Destination models.Location      `json:"destination" validate:"required"`
	Method      models.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=cash online"`
}

type RideService interface {
	RequestRide(ctx context.Context, riderID primitive.ObjectID, req *RideRequest) (*models.Ride, error)
	GetRide(ctx context.Context, rideID, requesterID primitive.ObjectID) (*models.Ride, error)
	GetRideOTP(ctx context.Context, rideID, riderID primitive.ObjectID) (string, error)
	ActiveRideForRider(ctx context.Context, riderID primitive.ObjectID) (*models.Ride, error)
	ActiveRideForPartner(ctx context.Context, partnerID primitive.ObjectID) (*models.Ride, error)

	MarkArriving(ctx context.Context, rideID, partnerID primitive.ObjectID) (*models.Ride, error)
	MarkArrived(ctx context.Context, rideID, partnerID primitive.ObjectID) (*models.Ride, error)
	StartTrip(ctx context.Context, rideID, partnerID primitive.ObjectID, otp string) (*models.Ride, error)
	CompleteTrip(ctx context.Context, rideID, partnerID primitive.ObjectID) (*models.Ride, error)

	CancelByRider(ctx context.Context, rideID, riderID primitive.ObjectID, reason string) (*models.Ride, error)
	CancelByPartner(ctx context.Context, rideID, partnerID primitive.ObjectID, reason string) (*models.Ride, error)

	RiderHistory(ctx context.Context, riderID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	PartnerHistory(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)
}

type rideService struct {
	rideRepo     interfaces.RideRepository
	partnerRepo  interfaces.PartnerRepository
	userRepo     interfaces.UserRepository
	routes       RouteService
	notify       NotificationService
	dispatcher   Dispatcher
	logger       *logger.Logger
}

func NewRideService(
	rideRepo interfaces.RideRepository,
	partnerRepo interfaces.PartnerRepository,
	userRepo interfaces.UserRepository,
	routes RouteService,
	notify NotificationService,
	logger *logger.Logger,
) *rideService {
	return &rideService{
		rideRepo:    rideRepo,
		partnerRepo: partnerRepo,
		userRepo:    userRepo,
		routes:      routes,
		notify:      notify,
		logger:      logger,
	}
}

// SetDispatcher wires the dispatch loop in after construction; the
// dispatcher itself depends on this service for accept handling.
func (s *rideService) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

func (s *rideService) RequestRide(ctx context.Context, riderID primitive.ObjectID, req *RideRequest) (*models.Ride, error) {
	if _, err := s.rideRepo.GetActiveByRider(ctx, riderID); err == nil {
		return nil, ErrActiveRideExists
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	unsettled, err := s.rideRepo.GetUnsettledByRider(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if len(unsettled) > 0 {
		return nil, ErrUnsettledBill
	}

	rider, err := s.userRepo.GetByID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	estimate, err := s.routes.Estimate(ctx, req.Pickup, req.Destination)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate route: %w", err)
	}

	method := req.Method
	if method == "" {
		method = models.PaymentMethodCash
	}

	ride := &models.Ride{
		RideNumber:    utils.GenerateRideNumber(),
		RiderID:       riderID,
		PaymentMethod: method,
		Pickup:        req.Pickup,
		Destination:   req.Destination,
		Fare:          estimate.Fare,
		Distance:      estimate.DistanceKM,
		Duration:      estimate.DurationSec,
		Currency:      utils.DefaultCurrency,
		OTP:           utils.GenerateRideOTP(),
		RoutePolyline: estimate.Polyline,
		RiderName:     rider.Name,
		RiderPhone:    rider.Phone,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.logger.LogRideEvent(ride.ID, "ride_requested", map[string]interface{}{
		"rider_id":    riderID.Hex(),
		"fare":        ride.Fare,
		"distance_km": ride.Distance,
		"estimated":   estimate.Estimated,
	})

	if s.dispatcher != nil {
		s.dispatcher.StartSearch(ride)
	}

	return ride, nil
}

func (s *rideService) GetRide(ctx context.Context, rideID, requesterID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !s.involves(ctx, ride, requesterID) {
		return nil, ErrNotRideOwner
	}
	return ride, nil
}

// GetRideOTP exposes the pickup code to the rider only. The partner
// side never sees it; they type what the rider tells them.
func (s *rideService) GetRideOTP(ctx context.Context, rideID, riderID primitive.ObjectID) (string, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return "", err
	}
	if ride.RiderID != riderID {
		return "", ErrNotRideOwner
	}
	if ride.Status.IsTerminal() {
		return "", ErrOTPExpired
	}
	return ride.OTP, nil
}

func (s *rideService) ActiveRideForRider(ctx context.Context, riderID primitive.ObjectID) (*models.Ride, error) {
	return s.rideRepo.GetActiveByRider(ctx, riderID)
}

func (s *rideService) ActiveRideForPartner(ctx context.Context, partnerID primitive.ObjectID) (*models.Ride, error) {
	return s.rideRepo.GetActiveByPartner(ctx, partnerID)
}

func (s *rideService) MarkArriving(ctx context.Context, rideID, partnerID primitive.ObjectID) (*models.Ride, error) {
	return s.partnerTransition(ctx, rideID, partnerID, models.RideStatusAccepted, models.RideStatusArriving, nil)
}

func (s *rideService) MarkArrived(ctx context.Context, rideID, partnerID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.PartnerID == nil || *ride.PartnerID != partnerID {
		return nil, ErrNotRideOwner
	}
	// accepted -> arrived is allowed directly for short approaches.
	from := ride.Status
	if from != models.RideStatusAccepted && from != models.RideStatusArriving {
		return nil, ErrRideConflict
	}

	now := time.Now()
	updated, err := s.rideRepo.Transition(ctx, rideID, from, ride.Version, models.RideStatusArrived,
		map[string]interface{}{"arrived_at": now})
	if err != nil {
		return nil, s.mapRepoErr(err)
	}

	s.broadcast(ctx, updated, "partner_arrived")
	return updated, nil
}

// StartTrip verifies the pickup code server side and moves the ride to
// in_progress. Three wrong codes in a row do not lock the ride; the
// driver simply cannot start without the rider's cooperation.
func (s *rideService) StartTrip(ctx context.Context, rideID, partnerID primitive.ObjectID, otp string) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.PartnerID == nil || *ride.PartnerID != partnerID {
		return nil, ErrNotRideOwner
	}
	if ride.Status != models.RideStatusArrived {
		return nil, ErrRideConflict
	}
	if subtle.ConstantTimeCompare([]byte(ride.OTP), []byte(otp)) != 1 {
		s.logger.LogRideEvent(rideID, "otp_rejected", map[string]interface{}{"partner_id": partnerID.Hex()})
		return nil, ErrInvalidOTP
	}

	now := time.Now()
	updated, err := s.rideRepo.Transition(ctx, rideID, models.RideStatusArrived, ride.Version, models.RideStatusInProgress,
		map[string]interface{}{"started_at": now})
	if err != nil {
		return nil, s.mapRepoErr(err)
	}

	s.logger.LogRideEvent(rideID, "trip_started", nil)
	s.broadcast(ctx, updated, "trip_started")
	return updated, nil
}

func (s *rideService) CompleteTrip(ctx context.Context, rideID, partnerID primitive.ObjectID) (*models.Ride, error) {
	now := time.Now()
	updated, err := s.partnerTransition(ctx, rideID, partnerID, models.RideStatusInProgress, models.RideStatusCompleted,
		map[string]interface{}{"completed_at": now})
	if err != nil {
		return nil, err
	}

	// The driver is free as soon as the trip ends; collecting the fare
	// does not hold them hostage.
	if err := s.partnerRepo.ReleaseFromRide(ctx, partnerID, rideID); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("failed to release partner after completion")
	}

	s.logger.LogRideEvent(rideID, "trip_completed", map[string]interface{}{"fare": updated.Fare})
	return updated, nil
}

func (s *rideService) CancelByRider(ctx context.Context, rideID, riderID primitive.ObjectID, reason string) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != riderID {
		return nil, ErrNotRideOwner
	}
	if !models.CanTransition(ride.Status, models.RideStatusCancelledRider) {
		return nil, ErrRideConflict
	}

	now := time.Now()
	updated, err := s.rideRepo.Transition(ctx, rideID, ride.Status, ride.Version, models.RideStatusCancelledRider,
		map[string]interface{}{"cancellation_reason": reason, "cancelled_at": now})
	if err != nil {
		return nil, s.mapRepoErr(err)
	}

	if s.dispatcher != nil {
		s.dispatcher.CancelSearch(rideID)
	}
	if updated.PartnerID != nil {
		if err := s.partnerRepo.ReleaseFromRide(ctx, *updated.PartnerID, rideID); err != nil {
			s.logger.WithError(err).WithRideID(rideID).Error("failed to release partner after rider cancel")
		}
	}

	s.logger.LogRideEvent(rideID, "cancelled_by_rider", map[string]interface{}{"reason": reason})
	s.broadcast(ctx, updated, "ride_cancelled")
	return updated, nil
}

func (s *rideService) CancelByPartner(ctx context.Context, rideID, partnerID primitive.ObjectID, reason string) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.PartnerID == nil || *ride.PartnerID != partnerID {
		return nil, ErrNotRideOwner
	}
	if !models.CanTransition(ride.Status, models.RideStatusCancelledDriver) {
		return nil, ErrRideConflict
	}

	now := time.Now()
	updated, err := s.rideRepo.Transition(ctx, rideID, ride.Status, ride.Version, models.RideStatusCancelledDriver,
		map[string]interface{}{"cancellation_reason": reason, "cancelled_at": now})
	if err != nil {
		return nil, s.mapRepoErr(err)
	}

	if err := s.partnerRepo.ReleaseFromRide(ctx, partnerID, rideID); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("failed to release partner after driver cancel")
	}

	s.logger.LogRideEvent(rideID, "cancelled_by_driver", map[string]interface{}{"reason": reason})
	s.broadcast(ctx, updated, "ride_cancelled")
	s.notify.NotifyUser(ctx, updated.RiderID, "ride_cancelled", "Ride cancelled",
		"Your driver had to cancel. Request a new ride when ready.", rideEventData(updated))
	return updated, nil
}

func (s *rideService) RiderHistory(ctx context.Context, riderID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return s.rideRepo.GetByRider(ctx, riderID, params)
}

func (s *rideService) PartnerHistory(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return s.rideRepo.GetByPartner(ctx, partnerID, params)
}

func (s *rideService) partnerTransition(ctx context.Context, rideID, partnerID primitive.ObjectID, from, to models.RideStatus, updates map[string]interface{}) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.PartnerID == nil || *ride.PartnerID != partnerID {
		return nil, ErrNotRideOwner
	}
	if ride.Status != from {
		return nil, ErrRideConflict
	}

	updated, err := s.rideRepo.Transition(ctx, rideID, from, ride.Version, to, updates)
	if err != nil {
		return nil, s.mapRepoErr(err)
	}

	s.broadcast(ctx, updated, "ride_status")
	return updated, nil
}

func (s *rideService) broadcast(ctx context.Context, ride *models.Ride, eventType string) {
	s.notify.NotifyRide(ctx, ride.ID, eventType, rideEventData(ride))
}

func (s *rideService) involves(ctx context.Context, ride *models.Ride, userID primitive.ObjectID) bool {
	if ride.RiderID == userID {
		return true
	}
	if ride.PartnerID == nil {
		return false
	}
	partner, err := s.partnerRepo.GetByID(ctx, *ride.PartnerID)
	if err != nil {
		return false
	}
	return partner.UserID == userID || partner.ID == userID
}

func (s *rideService) mapRepoErr(err error) error {
	if errors.Is(err, interfaces.ErrStaleWrite) {
		return ErrRideConflict
	}
	return err
}

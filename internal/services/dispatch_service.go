package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"
	"pathgo/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DispatchService runs the driver search for new rides. One driver sees
// one offer at a time: the nearest available candidate gets a fixed
// acceptance window, an untouched offer is withdrawn exactly once when
// the countdown hits zero, and the search moves to the next candidate.
// A ride nobody takes inside the search window ends as no_drivers.
type DispatchService interface {
	Dispatcher
	AcceptOffer(ctx context.Context, offerID string, partnerUserID primitive.ObjectID) (*models.Ride, error)
	DeclineOffer(ctx context.Context, offerID string, partnerUserID primitive.ObjectID) error
	OfferForPartner(partnerID primitive.ObjectID) *models.JobOffer
}

// TxRunner is the slice of the database client the claim needs: run fn
// atomically and hand back its result. *database.MongoDB satisfies it.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error)
}

type offerEntry struct {
	offer   *models.JobOffer
	decided chan models.OfferState
}

type activeSearch struct {
	cancel context.CancelFunc
}

type dispatchService struct {
	rideRepo    interfaces.RideRepository
	partnerRepo interfaces.PartnerRepository
	presence    PresenceService
	notify      NotificationService
	db          TxRunner
	logger      *logger.Logger

	offerWindow  time.Duration
	searchWindow time.Duration
	radiusKM     float64

	mu       sync.Mutex
	offers   map[string]*offerEntry
	searches map[primitive.ObjectID]*activeSearch
}

func NewDispatchService(
	rideRepo interfaces.RideRepository,
	partnerRepo interfaces.PartnerRepository,
	presence PresenceService,
	notify NotificationService,
	db TxRunner,
	logger *logger.Logger,
) DispatchService {
	return &dispatchService{
		rideRepo:     rideRepo,
		partnerRepo:  partnerRepo,
		presence:     presence,
		notify:       notify,
		db:           db,
		logger:       logger,
		offerWindow:  utils.OfferWindow,
		searchWindow: utils.SearchWindow,
		radiusKM:     utils.DefaultSearchRadius,
		offers:       make(map[string]*offerEntry),
		searches:     make(map[primitive.ObjectID]*activeSearch),
	}
}

func (s *dispatchService) StartSearch(ride *models.Ride) {
	ctx, cancel := context.WithTimeout(context.Background(), s.searchWindow)

	s.mu.Lock()
	s.searches[ride.ID] = &activeSearch{cancel: cancel}
	s.mu.Unlock()

	go s.runSearch(ctx, ride)
}

func (s *dispatchService) CancelSearch(rideID primitive.ObjectID) {
	s.mu.Lock()
	search, ok := s.searches[rideID]
	s.mu.Unlock()
	if ok {
		search.cancel()
	}
}

func (s *dispatchService) runSearch(ctx context.Context, ride *models.Ride) {
	defer func() {
		s.mu.Lock()
		delete(s.searches, ride.ID)
		s.mu.Unlock()
	}()

	offered := make(map[primitive.ObjectID]bool)

	for {
		if ctx.Err() != nil {
			s.finishSearch(ride)
			return
		}

		candidates, err := s.presence.NearestAvailable(ctx, ride.Pickup, s.radiusKM, 10)
		if err != nil {
			s.logger.WithError(err).WithRideID(ride.ID).Error("candidate lookup failed")
		}

		next := s.pickCandidate(candidates, offered)
		if next == nil {
			// Nobody new in range right now; wait briefly and rescan
			// until the search window closes.
			select {
			case <-ctx.Done():
				s.finishSearch(ride)
				return
			case <-time.After(3 * time.Second):
				continue
			}
		}

		offered[next.ID] = true
		if accepted := s.runOffer(ctx, ride, next); accepted {
			return
		}
	}
}

func (s *dispatchService) pickCandidate(candidates []*models.Partner, offered map[primitive.ObjectID]bool) *models.Partner {
	for _, c := range candidates {
		if !offered[c.ID] {
			return c
		}
	}
	return nil
}

// runOffer presents the ride to one driver and blocks until the offer
// is decided or withdrawn. Returns true when the driver took the ride.
func (s *dispatchService) runOffer(ctx context.Context, ride *models.Ride, partner *models.Partner) bool {
	now := time.Now()
	pickupKM := utils.HaversineKM(
		ride.Pickup.Latitude(), ride.Pickup.Longitude(),
		partner.LastLocation.Latitude(), partner.LastLocation.Longitude())

	offer := &models.JobOffer{
		ID:          primitive.NewObjectID().Hex(),
		RideID:      ride.ID,
		PartnerID:   partner.ID,
		State:       models.OfferStatePending,
		Pickup:      ride.Pickup,
		Destination: ride.Destination,
		Fare:        ride.Fare,
		Distance:    ride.Distance,
		PickupETA:   utils.EstimateETAMinutes(pickupKM),
		OfferedAt:   now,
		ExpiresAt:   now.Add(s.offerWindow),
	}

	entry := &offerEntry{offer: offer, decided: make(chan models.OfferState, 1)}

	s.mu.Lock()
	s.offers[offer.ID] = entry
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.offers, offer.ID)
		s.mu.Unlock()
	}()

	s.notify.NotifyUser(ctx, partner.UserID, "job_offer", "New ride request",
		utils.FormatINR(ride.Fare)+" ride near you", map[string]interface{}{
			"offer_id":   offer.ID,
			"ride_id":    ride.ID.Hex(),
			"fare":       offer.Fare,
			"distance":   offer.Distance,
			"pickup_eta": offer.PickupETA,
			"expires_in": int(s.offerWindow.Seconds()),
		})
	s.logger.LogOfferEvent(ride.ID, partner.ID, "offer_sent")

	timer := time.NewTimer(s.offerWindow)
	defer timer.Stop()

	select {
	case outcome := <-entry.decided:
		return outcome == models.OfferStateAccepted

	case <-ctx.Done():
		s.withdraw(ctx, entry, partner.UserID)
		return false

	case <-timer.C:
		if s.withdraw(ctx, entry, partner.UserID) {
			s.logger.LogOfferEvent(ride.ID, partner.ID, "offer_expired")
			return false
		}
		// An accept slipped in just before the countdown hit zero;
		// the decision channel carries the final outcome.
		outcome := <-entry.decided
		return outcome == models.OfferStateAccepted
	}
}

// withdraw expires a still-pending offer and tells the driver exactly
// once. Returns false when the offer was already being decided.
func (s *dispatchService) withdraw(ctx context.Context, entry *offerEntry, partnerUserID primitive.ObjectID) bool {
	s.mu.Lock()
	if entry.offer.State != models.OfferStatePending {
		s.mu.Unlock()
		return false
	}
	entry.offer.State = models.OfferStateExpired
	s.mu.Unlock()

	s.notify.NotifyUser(ctx, partnerUserID, "offer_withdrawn", "Offer expired", "", map[string]interface{}{
		"offer_id": entry.offer.ID,
	})
	return true
}

func (s *dispatchService) AcceptOffer(ctx context.Context, offerID string, partnerUserID primitive.ObjectID) (*models.Ride, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, partnerUserID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	entry, ok := s.offers[offerID]
	if !ok || entry.offer.PartnerID != partner.ID ||
		entry.offer.State != models.OfferStatePending || entry.offer.Expired(time.Now()) {
		s.mu.Unlock()
		return nil, ErrOfferClosed
	}
	entry.offer.State = models.OfferStateAccepted
	s.mu.Unlock()

	ride, err := s.claimRide(ctx, entry.offer, partner)
	if err != nil {
		// The claim lost: give the loop the decline so the search can
		// move on to the next driver.
		s.mu.Lock()
		entry.offer.State = models.OfferStateDeclined
		s.mu.Unlock()
		entry.decided <- models.OfferStateDeclined

		s.logger.LogOfferEvent(entry.offer.RideID, partner.ID, "accept_failed")
		return nil, err
	}

	entry.decided <- models.OfferStateAccepted
	s.logger.LogOfferEvent(ride.ID, partner.ID, "offer_accepted")

	s.notify.NotifyRide(ctx, ride.ID, "ride_accepted", rideEventData(ride))
	s.notify.NotifyUser(ctx, ride.RiderID, "ride_accepted", "Driver on the way",
		ride.PartnerName+" is coming in a "+ride.VehicleModel, rideEventData(ride))

	return ride, nil
}

// claimRide marks the driver busy and assigns the ride in one mongo
// transaction, so a crash between the two writes cannot leave a driver
// locked to a ride they never got.
func (s *dispatchService) claimRide(ctx context.Context, offer *models.JobOffer, partner *models.Partner) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, offer.RideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideStatusSearching {
		return nil, ErrOfferClosed
	}

	result, err := s.db.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		claimed, err := s.partnerRepo.ClaimForRide(txCtx, partner.ID, partner.Version, ride.ID)
		if err != nil {
			return nil, err
		}
		return s.rideRepo.AssignPartner(txCtx, ride.ID, ride.Version, claimed)
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrStaleWrite) || errors.Is(err, interfaces.ErrPartnerUnavailable) {
			return nil, ErrOfferClosed
		}
		return nil, err
	}

	return result.(*models.Ride), nil
}

func (s *dispatchService) DeclineOffer(ctx context.Context, offerID string, partnerUserID primitive.ObjectID) error {
	partner, err := s.partnerRepo.GetByUserID(ctx, partnerUserID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	entry, ok := s.offers[offerID]
	if !ok || entry.offer.PartnerID != partner.ID || entry.offer.State != models.OfferStatePending {
		s.mu.Unlock()
		return ErrOfferClosed
	}
	entry.offer.State = models.OfferStateDeclined
	s.mu.Unlock()

	entry.decided <- models.OfferStateDeclined
	s.logger.LogOfferEvent(entry.offer.RideID, partner.ID, "offer_declined")
	return nil
}

// OfferForPartner returns the driver's currently pending offer, for app
// restarts mid-countdown.
func (s *dispatchService) OfferForPartner(partnerID primitive.ObjectID) *models.JobOffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.offers {
		if entry.offer.PartnerID == partnerID && entry.offer.State == models.OfferStatePending {
			copy := *entry.offer
			return &copy
		}
	}
	return nil
}

// finishSearch closes out a search that ran dry. Only a ride still in
// searching moves to no_drivers; a cancel or accept that raced the
// deadline wins.
func (s *dispatchService) finishSearch(ride *models.Ride) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	current, err := s.rideRepo.GetByID(ctx, ride.ID)
	if err != nil {
		s.logger.WithError(err).WithRideID(ride.ID).Error("failed to load ride at search end")
		return
	}
	if current.Status != models.RideStatusSearching {
		return
	}

	now := time.Now()
	updated, err := s.rideRepo.Transition(ctx, ride.ID, models.RideStatusSearching, current.Version,
		models.RideStatusNoDrivers, map[string]interface{}{"cancelled_at": now})
	if err != nil {
		if !errors.Is(err, interfaces.ErrStaleWrite) {
			s.logger.WithError(err).WithRideID(ride.ID).Error("failed to close searching ride")
		}
		return
	}

	s.logger.LogRideEvent(ride.ID, "no_drivers", nil)
	s.notify.NotifyRide(ctx, ride.ID, "no_drivers", rideEventData(updated))
	s.notify.NotifyUser(ctx, updated.RiderID, "no_drivers", "No drivers found",
		"All nearby drivers are busy. Please try again in a few minutes.", rideEventData(updated))
}

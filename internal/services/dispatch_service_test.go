package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakePresence struct {
	mu         sync.Mutex
	candidates []*models.Partner
}

func (f *fakePresence) GoOnline(ctx context.Context, partnerID primitive.ObjectID) error  { return nil }
func (f *fakePresence) GoOffline(ctx context.Context, partnerID primitive.ObjectID) error { return nil }
func (f *fakePresence) UpdateLocation(ctx context.Context, partnerID primitive.ObjectID, loc models.Location) error {
	return nil
}

func (f *fakePresence) NearestAvailable(ctx context.Context, pickup models.Location, radiusKM float64, limit int) ([]*models.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candidates, nil
}

type recordingNotify struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotify) NotifyUser(ctx context.Context, userID primitive.ObjectID, eventType, title, body string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *recordingNotify) NotifyRide(ctx context.Context, rideID primitive.ObjectID, eventType string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *recordingNotify) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type dispatchPartnerRepo struct {
	interfaces.PartnerRepository
	partners map[primitive.ObjectID]*models.Partner // keyed by user id
}

func (f *dispatchPartnerRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Partner, error) {
	partner, ok := f.partners[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return partner, nil
}

func (f *dispatchPartnerRepo) ClaimForRide(ctx context.Context, id primitive.ObjectID, version int64, rideID primitive.ObjectID) (*models.Partner, error) {
	for _, p := range f.partners {
		if p.ID != id {
			continue
		}
		if p.Version != version || p.ActiveRideID != nil {
			return nil, interfaces.ErrPartnerUnavailable
		}
		p.IsAvailable = false
		p.ActiveRideID = &rideID
		p.Version++
		return p, nil
	}
	return nil, interfaces.ErrNotFound
}

// inlineTxRunner runs the claim callback directly; session atomicity is
// the driver's job, not what these tests check.
type inlineTxRunner struct{}

func (inlineTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

// gatedTxRunner holds the claim open until the test releases it, to pin
// down interleavings between an accept and the offer countdown.
type gatedTxRunner struct {
	release chan struct{}
}

func (g *gatedTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	<-g.release
	return fn(ctx)
}

type dispatchFixture struct {
	svc      *dispatchService
	rideRepo *fakeRideRepo
	presence *fakePresence
	notify   *recordingNotify
	driver   *models.Partner
}

func newDispatchFixture(t *testing.T, offerWindow, searchWindow time.Duration) *dispatchFixture {
	t.Helper()

	driver := &models.Partner{
		ID:           primitive.NewObjectID(),
		UserID:       primitive.NewObjectID(),
		Name:         "Ravi",
		VehicleModel: "Honda Activa",
		VehiclePlate: "KA01AB1234",
		IsOnline:     true,
		IsAvailable:  true,
		LastLocation: models.NewPoint(12.9716, 77.5946),
	}

	rideRepo := newFakeRideRepo()
	presence := &fakePresence{candidates: []*models.Partner{driver}}
	notify := &recordingNotify{}
	partnerRepo := &dispatchPartnerRepo{partners: map[primitive.ObjectID]*models.Partner{driver.UserID: driver}}

	svc := &dispatchService{
		rideRepo:     rideRepo,
		partnerRepo:  partnerRepo,
		presence:     presence,
		notify:       notify,
		db:           inlineTxRunner{},
		logger:       testLogger(t),
		offerWindow:  offerWindow,
		searchWindow: searchWindow,
		radiusKM:     10,
		offers:       make(map[string]*offerEntry),
		searches:     make(map[primitive.ObjectID]*activeSearch),
	}

	return &dispatchFixture{svc: svc, rideRepo: rideRepo, presence: presence, notify: notify, driver: driver}
}

func (fx *dispatchFixture) seedSearchingRide() *models.Ride {
	ride := &models.Ride{
		ID:      primitive.NewObjectID(),
		RiderID: primitive.NewObjectID(),
		Status:  models.RideStatusSearching,
		Pickup:  models.NewPoint(12.9716, 77.5946),
		Fare:    160,
	}
	fx.rideRepo.rides[ride.ID] = ride
	return ride
}

func (fx *dispatchFixture) waitForOffer(t *testing.T) *models.JobOffer {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if offer := fx.svc.OfferForPartner(fx.driver.ID); offer != nil {
			return offer
		}
		select {
		case <-deadline:
			t.Fatal("no offer presented to the driver")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (fx *dispatchFixture) waitForStatus(t *testing.T, rideID primitive.ObjectID, want models.RideStatus) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		ride, err := fx.rideRepo.GetByID(context.Background(), rideID)
		require.NoError(t, err)
		if ride.Status == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("ride stuck in %s, want %s", ride.Status, want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDispatchOffersNearestDriver(t *testing.T) {
	fx := newDispatchFixture(t, 500*time.Millisecond, 2*time.Second)
	ride := fx.seedSearchingRide()

	fx.svc.StartSearch(ride)
	offer := fx.waitForOffer(t)

	assert.Equal(t, ride.ID, offer.RideID)
	assert.Equal(t, fx.driver.ID, offer.PartnerID)
	assert.Equal(t, models.OfferStatePending, offer.State)
	assert.Equal(t, ride.Fare, offer.Fare)
	assert.False(t, offer.Expired(time.Now()))

	fx.svc.CancelSearch(ride.ID)
}

func TestDeclineAdvancesSearch(t *testing.T) {
	fx := newDispatchFixture(t, time.Second, 300*time.Millisecond)
	ride := fx.seedSearchingRide()

	fx.svc.StartSearch(ride)
	offer := fx.waitForOffer(t)

	require.NoError(t, fx.svc.DeclineOffer(context.Background(), offer.ID, fx.driver.UserID))

	// the same driver is not asked twice, so the search runs dry
	fx.waitForStatus(t, ride.ID, models.RideStatusNoDrivers)
}

func TestOfferExpiresExactlyOnce(t *testing.T) {
	fx := newDispatchFixture(t, 50*time.Millisecond, 250*time.Millisecond)
	ride := fx.seedSearchingRide()

	fx.svc.StartSearch(ride)
	offer := fx.waitForOffer(t)

	// let the countdown lapse without touching the offer
	fx.waitForStatus(t, ride.ID, models.RideStatusNoDrivers)

	assert.Equal(t, 1, fx.notify.count("offer_withdrawn"))

	// a late accept finds the offer gone
	_, err := fx.svc.AcceptOffer(context.Background(), offer.ID, fx.driver.UserID)
	assert.ErrorIs(t, err, ErrOfferClosed)
}

func TestSearchTimeoutMarksNoDrivers(t *testing.T) {
	fx := newDispatchFixture(t, 50*time.Millisecond, 200*time.Millisecond)
	fx.presence.candidates = nil
	ride := fx.seedSearchingRide()

	fx.svc.StartSearch(ride)
	fx.waitForStatus(t, ride.ID, models.RideStatusNoDrivers)

	// rider is told once over the socket and once as a push event
	assert.Equal(t, 2, fx.notify.count("no_drivers"))
}

func TestAcceptUnknownOffer(t *testing.T) {
	fx := newDispatchFixture(t, time.Second, time.Second)

	_, err := fx.svc.AcceptOffer(context.Background(), primitive.NewObjectID().Hex(), fx.driver.UserID)
	assert.ErrorIs(t, err, ErrOfferClosed)
}

func TestDeclineByWrongDriver(t *testing.T) {
	fx := newDispatchFixture(t, time.Second, time.Second)
	ride := fx.seedSearchingRide()

	fx.svc.StartSearch(ride)
	offer := fx.waitForOffer(t)

	other := &models.Partner{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}
	fx.svc.partnerRepo.(*dispatchPartnerRepo).partners[other.UserID] = other

	err := fx.svc.DeclineOffer(context.Background(), offer.ID, other.UserID)
	assert.ErrorIs(t, err, ErrOfferClosed)

	fx.svc.CancelSearch(ride.ID)
}

func (fx *dispatchFixture) waitForSearchEnd(t *testing.T, rideID primitive.ObjectID) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		fx.svc.mu.Lock()
		_, running := fx.svc.searches[rideID]
		fx.svc.mu.Unlock()
		if !running {
			return
		}
		select {
		case <-deadline:
			t.Fatal("search never wound down")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestAcceptOfferAssignsDriver(t *testing.T) {
	fx := newDispatchFixture(t, time.Second, 250*time.Millisecond)
	ride := fx.seedSearchingRide()

	fx.svc.StartSearch(ride)
	offer := fx.waitForOffer(t)

	accepted, err := fx.svc.AcceptOffer(context.Background(), offer.ID, fx.driver.UserID)
	require.NoError(t, err)

	assert.Equal(t, models.RideStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.PartnerID)
	assert.Equal(t, fx.driver.ID, *accepted.PartnerID)
	assert.Equal(t, fx.driver.Name, accepted.PartnerName)
	assert.Equal(t, fx.driver.VehicleModel, accepted.VehicleModel)
	assert.Equal(t, fx.driver.VehiclePlate, accepted.VehiclePlate)

	// the driver is locked to this ride until completion
	assert.False(t, fx.driver.IsAvailable)
	require.NotNil(t, fx.driver.ActiveRideID)
	assert.Equal(t, ride.ID, *fx.driver.ActiveRideID)

	// the winning offer is consumed
	assert.Nil(t, fx.svc.OfferForPartner(fx.driver.ID))

	// the search winds down without withdrawing anything, and the
	// deadline passing later must not flip the ride to no_drivers
	fx.waitForSearchEnd(t, ride.ID)
	time.Sleep(300 * time.Millisecond)

	current, err := fx.rideRepo.GetByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusAccepted, current.Status)
	assert.Equal(t, 0, fx.notify.count("offer_withdrawn"))
	assert.Equal(t, 0, fx.notify.count("no_drivers"))

	// rider hears about the match over the socket and as a push event
	assert.Equal(t, 2, fx.notify.count("ride_accepted"))
}

func TestAcceptRacingCountdownWins(t *testing.T) {
	fx := newDispatchFixture(t, 100*time.Millisecond, 2*time.Second)
	ride := fx.seedSearchingRide()

	// Hold the claim open past the offer deadline, so the countdown
	// fires while the accept is mid-flight.
	gate := &gatedTxRunner{release: make(chan struct{})}
	fx.svc.db = gate

	fx.svc.StartSearch(ride)
	offer := fx.waitForOffer(t)

	type acceptResult struct {
		ride *models.Ride
		err  error
	}
	results := make(chan acceptResult, 1)
	go func() {
		accepted, err := fx.svc.AcceptOffer(context.Background(), offer.ID, fx.driver.UserID)
		results <- acceptResult{ride: accepted, err: err}
	}()

	// Let the countdown lapse; the offer is already being decided, so
	// it must not be withdrawn.
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 0, fx.notify.count("offer_withdrawn"))

	close(gate.release)
	result := <-results
	require.NoError(t, result.err)
	assert.Equal(t, models.RideStatusAccepted, result.ride.Status)

	fx.waitForSearchEnd(t, ride.ID)
	assert.Equal(t, 0, fx.notify.count("offer_withdrawn"))
	assert.Equal(t, 0, fx.notify.count("no_drivers"))
}

func TestAcceptLosesClaimAdvancesSearch(t *testing.T) {
	fx := newDispatchFixture(t, time.Second, 300*time.Millisecond)
	ride := fx.seedSearchingRide()

	// The driver picked up another ride between the offer and the
	// accept, so the claim finds them busy.
	busyRide := primitive.NewObjectID()
	fx.driver.ActiveRideID = &busyRide

	fx.svc.StartSearch(ride)
	offer := fx.waitForOffer(t)

	_, err := fx.svc.AcceptOffer(context.Background(), offer.ID, fx.driver.UserID)
	assert.ErrorIs(t, err, ErrOfferClosed)

	// the lost claim reads as a decline, so the search keeps going and
	// eventually runs dry
	fx.waitForStatus(t, ride.ID, models.RideStatusNoDrivers)
}

func TestCancelSearchLeavesRideAlone(t *testing.T) {
	fx := newDispatchFixture(t, time.Second, 5*time.Second)
	ride := fx.seedSearchingRide()

	fx.svc.StartSearch(ride)
	fx.waitForOffer(t)

	// the rider cancelled; the repo reflects it before the search stops
	fx.rideRepo.mu.Lock()
	ride.Status = models.RideStatusCancelledRider
	fx.rideRepo.mu.Unlock()
	fx.svc.CancelSearch(ride.ID)

	time.Sleep(50 * time.Millisecond)
	current, err := fx.rideRepo.GetByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusCancelledRider, current.Status)
}

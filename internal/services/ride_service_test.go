package services

import (
	"context"
	"sync"
	"testing"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeRideRepo is an in-memory RideRepository covering the methods the
// ride and dispatch services exercise. Unimplemented methods panic via
// the embedded nil interface, which is a test bug, not a product path.
// The dispatch tests hit it from the search goroutine and the test
// goroutine at once, hence the mutex.
type fakeRideRepo struct {
	interfaces.RideRepository
	mu    sync.Mutex
	rides map[primitive.ObjectID]*models.Ride
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{rides: make(map[primitive.ObjectID]*models.Ride)}
}

func (f *fakeRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}
	ride.Status = models.RideStatusSearching
	ride.PaymentStatus = models.PaymentStatusPending
	f.rides[ride.ID] = ride
	return nil
}

func (f *fakeRideRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *ride
	return &copied, nil
}

func (f *fakeRideRepo) Transition(ctx context.Context, id primitive.ObjectID, fromStatus models.RideStatus, version int64, toStatus models.RideStatus, updates map[string]interface{}) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if ride.Status != fromStatus || ride.Version != version {
		return nil, interfaces.ErrStaleWrite
	}
	ride.Status = toStatus
	ride.Version++
	copied := *ride
	return &copied, nil
}

func (f *fakeRideRepo) AssignPartner(ctx context.Context, id primitive.ObjectID, version int64, partner *models.Partner) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if ride.Status != models.RideStatusSearching || ride.Version != version {
		return nil, interfaces.ErrStaleWrite
	}
	ride.Status = models.RideStatusAccepted
	ride.PartnerID = &partner.ID
	ride.PartnerName = partner.Name
	ride.PartnerPhone = partner.Phone
	ride.PartnerPhoto = partner.ProfilePhoto
	ride.VehicleModel = partner.VehicleModel
	ride.VehiclePlate = partner.VehiclePlate
	ride.Version++
	copied := *ride
	return &copied, nil
}

func (f *fakeRideRepo) GetActiveByRider(ctx context.Context, riderID primitive.ObjectID) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ride := range f.rides {
		if ride.RiderID == riderID && !ride.Status.IsTerminal() && ride.Status != models.RideStatusCompleted && ride.Status != models.RideStatusPaymentPending {
			copied := *ride
			return &copied, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeRideRepo) GetUnsettledByRider(ctx context.Context, riderID primitive.ObjectID) ([]*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var unsettled []*models.Ride
	for _, ride := range f.rides {
		if ride.RiderID == riderID && ride.SettlementDue() {
			copied := *ride
			unsettled = append(unsettled, &copied)
		}
	}
	return unsettled, nil
}

type fakePartnerRepo struct {
	interfaces.PartnerRepository
	released []primitive.ObjectID
}

func (f *fakePartnerRepo) ReleaseFromRide(ctx context.Context, partnerID, rideID primitive.ObjectID) error {
	f.released = append(f.released, partnerID)
	return nil
}

type fakeUserRepo struct {
	interfaces.UserRepository
	users map[primitive.ObjectID]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return user, nil
}

type noopNotify struct{}

func (noopNotify) NotifyUser(ctx context.Context, userID primitive.ObjectID, eventType, title, body string, data map[string]interface{}) {
}
func (noopNotify) NotifyRide(ctx context.Context, rideID primitive.ObjectID, eventType string, data map[string]interface{}) {
}

type recordingDispatcher struct {
	started   []primitive.ObjectID
	cancelled []primitive.ObjectID
}

func (d *recordingDispatcher) StartSearch(ride *models.Ride)          { d.started = append(d.started, ride.ID) }
func (d *recordingDispatcher) CancelSearch(rideID primitive.ObjectID) { d.cancelled = append(d.cancelled, rideID) }

type rideFixture struct {
	svc        *rideService
	rideRepo   *fakeRideRepo
	partners   *fakePartnerRepo
	dispatcher *recordingDispatcher
	riderID    primitive.ObjectID
}

func newRideFixture(t *testing.T) *rideFixture {
	t.Helper()

	riderID := primitive.NewObjectID()
	rideRepo := newFakeRideRepo()
	partners := &fakePartnerRepo{}
	users := &fakeUserRepo{users: map[primitive.ObjectID]*models.User{
		riderID: {ID: riderID, Name: "Asha", Phone: "+919876543210"},
	}}
	dispatcher := &recordingDispatcher{}

	svc := NewRideService(rideRepo, partners, users, NewRouteService(testLogger(t)), noopNotify{}, testLogger(t))
	svc.SetDispatcher(dispatcher)

	return &rideFixture{svc: svc, rideRepo: rideRepo, partners: partners, dispatcher: dispatcher, riderID: riderID}
}

func (fx *rideFixture) seedRide(status models.RideStatus, partnerID *primitive.ObjectID) *models.Ride {
	ride := &models.Ride{
		ID:            primitive.NewObjectID(),
		RiderID:       fx.riderID,
		PartnerID:     partnerID,
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
		OTP:           "4321",
		Fare:          160,
	}
	fx.rideRepo.rides[ride.ID] = ride
	return ride
}

func TestRequestRideStartsSearch(t *testing.T) {
	fx := newRideFixture(t)

	ride, err := fx.svc.RequestRide(context.Background(), fx.riderID, &RideRequest{
		Pickup:      models.NewPoint(12.9716, 77.5946),
		Destination: models.NewPoint(12.9352, 77.6245),
	})
	require.NoError(t, err)

	assert.Equal(t, models.RideStatusSearching, ride.Status)
	assert.Equal(t, models.PaymentMethodCash, ride.PaymentMethod)
	assert.Len(t, ride.OTP, 4)
	assert.NotEmpty(t, ride.RideNumber)
	assert.Equal(t, "Asha", ride.RiderName)
	assert.Greater(t, ride.Fare, 0.0)
	assert.Equal(t, []primitive.ObjectID{ride.ID}, fx.dispatcher.started)
}

func TestRequestRideBlockedByActiveRide(t *testing.T) {
	fx := newRideFixture(t)
	fx.seedRide(models.RideStatusAccepted, nil)

	_, err := fx.svc.RequestRide(context.Background(), fx.riderID, &RideRequest{
		Pickup:      models.NewPoint(12.97, 77.59),
		Destination: models.NewPoint(12.93, 77.62),
	})
	assert.ErrorIs(t, err, ErrActiveRideExists)
}

func TestRequestRideBlockedByUnsettledBill(t *testing.T) {
	fx := newRideFixture(t)
	fx.seedRide(models.RideStatusCompleted, nil)

	_, err := fx.svc.RequestRide(context.Background(), fx.riderID, &RideRequest{
		Pickup:      models.NewPoint(12.97, 77.59),
		Destination: models.NewPoint(12.93, 77.62),
	})
	assert.ErrorIs(t, err, ErrUnsettledBill)
}

func TestGetRideOTP(t *testing.T) {
	fx := newRideFixture(t)
	ride := fx.seedRide(models.RideStatusAccepted, nil)

	otp, err := fx.svc.GetRideOTP(context.Background(), ride.ID, fx.riderID)
	require.NoError(t, err)
	assert.Equal(t, "4321", otp)

	// only the rider may read the code
	_, err = fx.svc.GetRideOTP(context.Background(), ride.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotRideOwner)

	// terminal rides stop exposing it
	cancelled := fx.seedRide(models.RideStatusCancelledRider, nil)
	_, err = fx.svc.GetRideOTP(context.Background(), cancelled.ID, fx.riderID)
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestStartTripVerifiesOTP(t *testing.T) {
	fx := newRideFixture(t)
	partnerID := primitive.NewObjectID()
	ride := fx.seedRide(models.RideStatusArrived, &partnerID)

	_, err := fx.svc.StartTrip(context.Background(), ride.ID, partnerID, "0000")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	updated, err := fx.svc.StartTrip(context.Background(), ride.ID, partnerID, "4321")
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusInProgress, updated.Status)
}

func TestStartTripRequiresArrivedStatus(t *testing.T) {
	fx := newRideFixture(t)
	partnerID := primitive.NewObjectID()
	ride := fx.seedRide(models.RideStatusAccepted, &partnerID)

	_, err := fx.svc.StartTrip(context.Background(), ride.ID, partnerID, "4321")
	assert.ErrorIs(t, err, ErrRideConflict)
}

func TestStartTripRejectsOtherDriver(t *testing.T) {
	fx := newRideFixture(t)
	partnerID := primitive.NewObjectID()
	ride := fx.seedRide(models.RideStatusArrived, &partnerID)

	_, err := fx.svc.StartTrip(context.Background(), ride.ID, primitive.NewObjectID(), "4321")
	assert.ErrorIs(t, err, ErrNotRideOwner)
}

func TestCompleteTripReleasesDriver(t *testing.T) {
	fx := newRideFixture(t)
	partnerID := primitive.NewObjectID()
	ride := fx.seedRide(models.RideStatusInProgress, &partnerID)

	updated, err := fx.svc.CompleteTrip(context.Background(), ride.ID, partnerID)
	require.NoError(t, err)

	assert.Equal(t, models.RideStatusCompleted, updated.Status)
	assert.True(t, updated.SettlementDue())
	assert.Equal(t, []primitive.ObjectID{partnerID}, fx.partners.released)
}

func TestCancelByRiderStopsSearch(t *testing.T) {
	fx := newRideFixture(t)
	ride := fx.seedRide(models.RideStatusSearching, nil)

	updated, err := fx.svc.CancelByRider(context.Background(), ride.ID, fx.riderID, "changed plans")
	require.NoError(t, err)

	assert.Equal(t, models.RideStatusCancelledRider, updated.Status)
	assert.Equal(t, []primitive.ObjectID{ride.ID}, fx.dispatcher.cancelled)
}

func TestCancelByRiderRejectedInProgress(t *testing.T) {
	fx := newRideFixture(t)
	partnerID := primitive.NewObjectID()
	ride := fx.seedRide(models.RideStatusInProgress, &partnerID)

	_, err := fx.svc.CancelByRider(context.Background(), ride.ID, fx.riderID, "too late")
	assert.ErrorIs(t, err, ErrRideConflict)
}

func TestConcurrentTransitionSurfacesConflict(t *testing.T) {
	fx := newRideFixture(t)
	partnerID := primitive.NewObjectID()
	ride := fx.seedRide(models.RideStatusAccepted, &partnerID)

	// a competing write bumps the version after our read
	fx.rideRepo.rides[ride.ID].Version = 7

	_, err := fx.svc.MarkArriving(context.Background(), ride.ID, partnerID)
	assert.NoError(t, err)

	// now simulate the race directly against the repository
	_, err = fx.rideRepo.Transition(context.Background(), ride.ID, models.RideStatusAccepted, 7, models.RideStatusArriving, nil)
	assert.ErrorIs(t, err, interfaces.ErrStaleWrite)
}

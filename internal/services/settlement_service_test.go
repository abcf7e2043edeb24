package services

import (
	"context"
	"errors"
	"testing"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type settleRideRepo struct {
	*fakeRideRepo
}

func (f *settleRideRepo) MarkPaid(ctx context.Context, id primitive.ObjectID, method models.PaymentMethod) (*models.Ride, error) {
	ride, ok := f.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if !ride.SettlementDue() {
		return nil, interfaces.ErrAlreadyPaid
	}
	ride.Status = models.RideStatusPaid
	ride.PaymentStatus = models.PaymentStatusPaid
	ride.PaymentMethod = method
	ride.Version++
	copied := *ride
	return &copied, nil
}

type settlePartnerRepo struct {
	interfaces.PartnerRepository
	earnings map[primitive.ObjectID]float64
}

func (f *settlePartnerRepo) RecordRideEarnings(ctx context.Context, partnerID primitive.ObjectID, fare float64) error {
	f.earnings[partnerID] += fare
	return nil
}

type settleTxnRepo struct {
	interfaces.TransactionRepository
	created []*models.Transaction
	marked  map[primitive.ObjectID]models.TransactionStatus
}

func newSettleTxnRepo() *settleTxnRepo {
	return &settleTxnRepo{marked: make(map[primitive.ObjectID]models.TransactionStatus)}
}

func (f *settleTxnRepo) Create(ctx context.Context, txn *models.Transaction) error {
	txn.ID = primitive.NewObjectID()
	f.created = append(f.created, txn)
	return nil
}

func (f *settleTxnRepo) GetByGatewayOrder(ctx context.Context, orderID string) (*models.Transaction, error) {
	for _, txn := range f.created {
		if txn.GatewayOrderID == orderID {
			return txn, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *settleTxnRepo) MarkStatus(ctx context.Context, id primitive.ObjectID, status models.TransactionStatus, paymentID string) error {
	f.marked[id] = status
	return nil
}

type fakeGateway struct {
	verifyErr   error
	webhook     *payment.WebhookEvent
	webhookErr  error
	orderCalled int
}

func (f *fakeGateway) CreateOrder(ctx context.Context, req *payment.OrderRequest) (*payment.OrderResponse, error) {
	f.orderCalled++
	return &payment.OrderResponse{OrderID: "order_test_1", Status: "created", Amount: req.Amount, Currency: req.Currency}, nil
}

func (f *fakeGateway) VerifyPayment(ctx context.Context, req *payment.VerifyRequest) error {
	return f.verifyErr
}

func (f *fakeGateway) RefundPayment(ctx context.Context, req *payment.RefundRequest) (*payment.RefundResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*payment.WebhookEvent, error) {
	return f.webhook, f.webhookErr
}

type settleFixture struct {
	svc       SettlementService
	rides     *settleRideRepo
	txns      *settleTxnRepo
	partners  *settlePartnerRepo
	gateway   *fakeGateway
	riderID   primitive.ObjectID
	partnerID primitive.ObjectID
}

func newSettleFixture(t *testing.T) *settleFixture {
	t.Helper()

	rides := &settleRideRepo{fakeRideRepo: newFakeRideRepo()}
	txns := newSettleTxnRepo()
	partners := &settlePartnerRepo{earnings: make(map[primitive.ObjectID]float64)}
	gateway := &fakeGateway{}

	return &settleFixture{
		svc:       NewSettlementService(rides, partners, txns, gateway, noopNotify{}, testLogger(t)),
		rides:     rides,
		txns:      txns,
		partners:  partners,
		gateway:   gateway,
		riderID:   primitive.NewObjectID(),
		partnerID: primitive.NewObjectID(),
	}
}

func (fx *settleFixture) seedCompletedRide() *models.Ride {
	ride := &models.Ride{
		ID:            primitive.NewObjectID(),
		RideNumber:    "PG-20260828-TEST01",
		RiderID:       fx.riderID,
		PartnerID:     &fx.partnerID,
		Status:        models.RideStatusCompleted,
		PaymentStatus: models.PaymentStatusPending,
		Fare:          160,
		Currency:      "INR",
	}
	fx.rides.rides[ride.ID] = ride
	return ride
}

func TestSettleCash(t *testing.T) {
	fx := newSettleFixture(t)
	ride := fx.seedCompletedRide()

	paid, err := fx.svc.SettleCash(context.Background(), ride.ID, fx.partnerID)
	require.NoError(t, err)

	assert.Equal(t, models.RideStatusPaid, paid.Status)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, models.PaymentMethodCash, paid.PaymentMethod)
	assert.False(t, paid.SettlementDue())

	require.Len(t, fx.txns.created, 1)
	txn := fx.txns.created[0]
	assert.Equal(t, models.TransactionKindRideFare, txn.Kind)
	assert.Equal(t, 160.0, txn.Amount)
	assert.Equal(t, 152.38, txn.BaseFare)
	assert.Equal(t, 7.62, txn.GST)

	assert.Equal(t, 160.0, fx.partners.earnings[fx.partnerID])
}

func TestSettleCashTwice(t *testing.T) {
	fx := newSettleFixture(t)
	ride := fx.seedCompletedRide()

	_, err := fx.svc.SettleCash(context.Background(), ride.ID, fx.partnerID)
	require.NoError(t, err)

	_, err = fx.svc.SettleCash(context.Background(), ride.ID, fx.partnerID)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyPaid)
	assert.Len(t, fx.txns.created, 1)
}

func TestSettleCashByWrongPartner(t *testing.T) {
	fx := newSettleFixture(t)
	ride := fx.seedCompletedRide()

	_, err := fx.svc.SettleCash(context.Background(), ride.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotRideOwner)
}

func TestCreatePaymentOrderFlagsPaymentPending(t *testing.T) {
	fx := newSettleFixture(t)
	ride := fx.seedCompletedRide()

	order, err := fx.svc.CreatePaymentOrder(context.Background(), ride.ID, fx.riderID)
	require.NoError(t, err)

	assert.Equal(t, "order_test_1", order.OrderID)
	assert.Equal(t, 160.0, order.Amount)

	current, err := fx.rides.GetByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusPaymentPending, current.Status)
	assert.True(t, current.SettlementDue())

	require.Len(t, fx.txns.created, 1)
	assert.Equal(t, models.TransactionPending, fx.txns.created[0].Status)
	assert.Equal(t, "order_test_1", fx.txns.created[0].GatewayOrderID)
}

func TestConfirmOnlinePayment(t *testing.T) {
	fx := newSettleFixture(t)
	ride := fx.seedCompletedRide()

	_, err := fx.svc.CreatePaymentOrder(context.Background(), ride.ID, fx.riderID)
	require.NoError(t, err)

	paid, err := fx.svc.ConfirmOnlinePayment(context.Background(), ride.ID, fx.riderID, &PaymentConfirmation{
		OrderID:   "order_test_1",
		PaymentID: "pay_test_1",
		Signature: "sig",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RideStatusPaid, paid.Status)
	assert.Equal(t, models.PaymentMethodOnline, paid.PaymentMethod)

	// the pending order transaction is finalized, not duplicated
	require.Len(t, fx.txns.created, 1)
	assert.Equal(t, models.TransactionSucceeded, fx.txns.marked[fx.txns.created[0].ID])
	assert.Equal(t, 160.0, fx.partners.earnings[fx.partnerID])
}

func TestConfirmOnlinePaymentBadSignature(t *testing.T) {
	fx := newSettleFixture(t)
	ride := fx.seedCompletedRide()
	fx.gateway.verifyErr = errors.New("signature mismatch")

	_, err := fx.svc.ConfirmOnlinePayment(context.Background(), ride.ID, fx.riderID, &PaymentConfirmation{
		OrderID: "order_test_1", PaymentID: "pay_test_1", Signature: "bad",
	})
	assert.Error(t, err)

	current, err := fx.rides.GetByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.True(t, current.SettlementDue())
}

func TestWebhookSettlesAbandonedPayment(t *testing.T) {
	fx := newSettleFixture(t)
	ride := fx.seedCompletedRide()

	_, err := fx.svc.CreatePaymentOrder(context.Background(), ride.ID, fx.riderID)
	require.NoError(t, err)

	fx.gateway.webhook = &payment.WebhookEvent{
		EventType: "payment.captured",
		Data:      map[string]interface{}{"order_id": "order_test_1", "payment_id": "pay_wh_1"},
	}

	require.NoError(t, fx.svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))

	current, err := fx.rides.GetByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusPaid, current.Status)

	// replay is a no-op
	require.NoError(t, fx.svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
	assert.Len(t, fx.txns.created, 1)
}

func TestWebhookIgnoresUnknownOrder(t *testing.T) {
	fx := newSettleFixture(t)
	fx.gateway.webhook = &payment.WebhookEvent{
		EventType: "payment.captured",
		Data:      map[string]interface{}{"order_id": "order_unknown"},
	}

	assert.NoError(t, fx.svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	fx := newSettleFixture(t)
	fx.gateway.webhook = &payment.WebhookEvent{EventType: "payment.failed"}

	assert.NoError(t, fx.svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
}

package services

import (
	"context"
	"errors"
	"fmt"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"
	"pathgo/pkg/logger"
	"pathgo/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SettlementService owns payment_status. The ride lifecycle says when a
// bill exists; this service is the only code that settles it, records
// the transaction with its GST split, and credits the partner.
type SettlementService interface {
	// SettleCash confirms cash collection. Partner-only.
	SettleCash(ctx context.Context, rideID, partnerID primitive.ObjectID) (*models.Ride, error)

	// CreatePaymentOrder opens a gateway order for an online payment.
	CreatePaymentOrder(ctx context.Context, rideID, riderID primitive.ObjectID) (*PaymentOrder, error)
	// ConfirmOnlinePayment verifies the gateway signature and settles.
	ConfirmOnlinePayment(ctx context.Context, rideID, riderID primitive.ObjectID, req *PaymentConfirmation) (*models.Ride, error)
	// HandleWebhook settles from the gateway's async notification, for
	// clients that died between paying and confirming.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	UserTransactions(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error)
	PartnerTransactions(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error)
}

type PaymentOrder struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type PaymentConfirmation struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type settlementService struct {
	rideRepo    interfaces.RideRepository
	partnerRepo interfaces.PartnerRepository
	txnRepo     interfaces.TransactionRepository
	gateway     payment.Provider
	notify      NotificationService
	logger      *logger.Logger
}

func NewSettlementService(
	rideRepo interfaces.RideRepository,
	partnerRepo interfaces.PartnerRepository,
	txnRepo interfaces.TransactionRepository,
	gateway payment.Provider,
	notify NotificationService,
	logger *logger.Logger,
) SettlementService {
	return &settlementService{
		rideRepo:    rideRepo,
		partnerRepo: partnerRepo,
		txnRepo:     txnRepo,
		gateway:     gateway,
		notify:      notify,
		logger:      logger,
	}
}

func (s *settlementService) SettleCash(ctx context.Context, rideID, partnerID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.PartnerID == nil || *ride.PartnerID != partnerID {
		return nil, ErrNotRideOwner
	}
	if !ride.SettlementDue() {
		return nil, interfaces.ErrAlreadyPaid
	}

	return s.settle(ctx, ride, models.PaymentMethodCash, "", "")
}

func (s *settlementService) CreatePaymentOrder(ctx context.Context, rideID, riderID primitive.ObjectID) (*PaymentOrder, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != riderID {
		return nil, ErrNotRideOwner
	}
	if !ride.SettlementDue() {
		return nil, interfaces.ErrAlreadyPaid
	}

	order, err := s.gateway.CreateOrder(ctx, &payment.OrderRequest{
		Amount:   ride.Fare,
		Currency: ride.Currency,
		Receipt:  ride.RideNumber,
		Notes:    map[string]string{"ride_id": ride.ID.Hex()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	breakup := utils.SplitFareGST(ride.Fare, utils.GSTRate)
	txn := &models.Transaction{
		Kind:           models.TransactionKindRideFare,
		Status:         models.TransactionPending,
		UserID:         ride.RiderID,
		PartnerID:      ride.PartnerID,
		RefID:          ride.ID,
		Amount:         ride.Fare,
		BaseFare:       breakup.Base,
		GST:            breakup.GST,
		Currency:       ride.Currency,
		Method:         models.PaymentMethodOnline,
		GatewayOrderID: order.OrderID,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	// A bill with an open gateway order shows as payment_pending; cash
	// settlement stays possible from completed until the order is paid.
	if ride.Status == models.RideStatusCompleted {
		if _, err := s.rideRepo.Transition(ctx, ride.ID, models.RideStatusCompleted, ride.Version,
			models.RideStatusPaymentPending, nil); err != nil && !errors.Is(err, interfaces.ErrStaleWrite) {
			s.logger.WithError(err).WithRideID(ride.ID).Warn("failed to flag payment pending")
		}
	}

	return &PaymentOrder{OrderID: order.OrderID, Amount: ride.Fare, Currency: ride.Currency}, nil
}

func (s *settlementService) ConfirmOnlinePayment(ctx context.Context, rideID, riderID primitive.ObjectID, req *PaymentConfirmation) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != riderID {
		return nil, ErrNotRideOwner
	}

	if err := s.gateway.VerifyPayment(ctx, &payment.VerifyRequest{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	}); err != nil {
		return nil, fmt.Errorf("payment verification failed: %w", err)
	}

	return s.settle(ctx, ride, models.PaymentMethodOnline, req.OrderID, req.PaymentID)
}

func (s *settlementService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ValidateWebhook(ctx, payload, signature)
	if err != nil {
		return fmt.Errorf("webhook validation failed: %w", err)
	}
	if event.EventType != "payment.captured" && event.EventType != "payment_intent.succeeded" {
		return nil
	}

	orderID, _ := event.Data["order_id"].(string)
	paymentID, _ := event.Data["payment_id"].(string)
	if orderID == "" {
		return nil
	}

	txn, err := s.txnRepo.GetByGatewayOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil
		}
		return err
	}
	if txn.Status == models.TransactionSucceeded {
		return nil
	}

	ride, err := s.rideRepo.GetByID(ctx, txn.RefID)
	if err != nil {
		return err
	}

	_, err = s.settle(ctx, ride, models.PaymentMethodOnline, orderID, paymentID)
	if errors.Is(err, interfaces.ErrAlreadyPaid) {
		return nil
	}
	return err
}

// settle is the single paid-flip. MarkPaid is a CAS on payment_status,
// so concurrent cash and webhook settlement cannot both win.
func (s *settlementService) settle(ctx context.Context, ride *models.Ride, method models.PaymentMethod, orderID, paymentID string) (*models.Ride, error) {
	paid, err := s.rideRepo.MarkPaid(ctx, ride.ID, method)
	if err != nil {
		return nil, err
	}

	s.recordTransaction(ctx, paid, method, orderID, paymentID)

	if paid.PartnerID != nil {
		if err := s.partnerRepo.RecordRideEarnings(ctx, *paid.PartnerID, paid.Fare); err != nil {
			s.logger.WithError(err).WithRideID(paid.ID).Error("failed to credit partner earnings")
		}
	}

	s.logger.LogSettlementEvent(paid.ID, "ride_settled", paid.Fare, string(method))
	s.notify.NotifyRide(ctx, paid.ID, "ride_paid", rideEventData(paid))
	return paid, nil
}

func (s *settlementService) recordTransaction(ctx context.Context, ride *models.Ride, method models.PaymentMethod, orderID, paymentID string) {
	if orderID != "" {
		txn, err := s.txnRepo.GetByGatewayOrder(ctx, orderID)
		if err == nil {
			if err := s.txnRepo.MarkStatus(ctx, txn.ID, models.TransactionSucceeded, paymentID); err != nil {
				s.logger.WithError(err).WithRideID(ride.ID).Error("failed to finalize transaction")
			}
			return
		}
	}

	breakup := utils.SplitFareGST(ride.Fare, utils.GSTRate)
	txn := &models.Transaction{
		Kind:             models.TransactionKindRideFare,
		Status:           models.TransactionSucceeded,
		UserID:           ride.RiderID,
		PartnerID:        ride.PartnerID,
		RefID:            ride.ID,
		Amount:           ride.Fare,
		BaseFare:         breakup.Base,
		GST:              breakup.GST,
		Currency:         ride.Currency,
		Method:           method,
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		s.logger.WithError(err).WithRideID(ride.ID).Error("failed to record settlement transaction")
	}
}

func (s *settlementService) UserTransactions(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	return s.txnRepo.GetByUser(ctx, userID, params)
}

func (s *settlementService) PartnerTransactions(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	return s.txnRepo.GetByPartner(ctx, partnerID, params)
}

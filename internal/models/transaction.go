package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionStatus string
type TransactionKind string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionSucceeded TransactionStatus = "succeeded"
	TransactionFailed    TransactionStatus = "failed"

	TransactionKindRideFare      TransactionKind = "ride_fare"
	TransactionKindGarageCharge  TransactionKind = "garage_charge"
	TransactionKindConsultation  TransactionKind = "consultation_fee"
)

// Transaction is the settlement record written when a bill is paid.
// Amounts carry the GST split so partner statements never re-derive it.
type Transaction struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Kind      TransactionKind     `json:"kind" bson:"kind" validate:"required"`
	Status    TransactionStatus   `json:"status" bson:"status" default:"pending"`
	UserID    primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	PartnerID *primitive.ObjectID `json:"partner_id" bson:"partner_id"`
	RefID     primitive.ObjectID  `json:"ref_id" bson:"ref_id" validate:"required"` // ride/garage/appointment id

	Amount   float64 `json:"amount" bson:"amount" validate:"gt=0"`
	BaseFare float64 `json:"base_fare" bson:"base_fare"`
	GST      float64 `json:"gst" bson:"gst"`
	Currency string  `json:"currency" bson:"currency" default:"INR"`
	Method   PaymentMethod `json:"method" bson:"method"`

	// Gateway references when Method is online.
	GatewayOrderID   string `json:"gateway_order_id" bson:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id" bson:"gateway_payment_id"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

package handlers

import (
	"errors"
	"net/http"

	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	if !ok {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	return id, true
}

func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+param)
		return primitive.NilObjectID, false
	}
	return id, true
}

func bindAndValidate(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return false
	}
	if err := utils.ValidateStruct(dest); err != nil {
		utils.ValidationErrorResponse(c, utils.ValidationErrors(err))
		return false
	}
	return true
}

// respondServiceError translates domain errors to HTTP. Anything not
// recognized is a 500 with a generic body; the detail stays in the logs.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		utils.NotFoundResponse(c, utils.ErrNotFound)
	case errors.Is(err, services.ErrNotRideOwner):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrActiveRideExists):
		utils.ConflictResponse(c, "You already have an active request")
	case errors.Is(err, services.ErrUnsettledBill):
		utils.ErrorResponse(c, http.StatusPaymentRequired, "UNSETTLED_BILL", "Settle your previous ride before booking a new one")
	case errors.Is(err, services.ErrRideConflict):
		utils.ConflictResponse(c, "The request changed underneath you, refresh and retry")
	case errors.Is(err, services.ErrOfferClosed):
		utils.ErrorResponse(c, http.StatusGone, "OFFER_CLOSED", "This offer is no longer available")
	case errors.Is(err, services.ErrInvalidOTP):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "INVALID_OTP", "The pickup code is incorrect")
	case errors.Is(err, services.ErrOTPExpired):
		utils.ErrorResponse(c, http.StatusGone, "OTP_EXPIRED", "The pickup code is no longer valid")
	case errors.Is(err, services.ErrNoOpenCase):
		utils.NotFoundResponse(c, "No open case")
	case errors.Is(err, services.ErrSlotUnavailable):
		utils.ConflictResponse(c, "That slot was just taken, pick another")
	case errors.Is(err, services.ErrAlreadyRegistered):
		utils.ConflictResponse(c, "A partner profile already exists for this account")
	case errors.Is(err, services.ErrPartnerNotApproved):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrUnsupportedImage):
		utils.BadRequestResponse(c, "Only jpg and png images are supported")
	case errors.Is(err, services.ErrInvalidLoginOTP):
		utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_OTP", "The code is incorrect or expired")
	case errors.Is(err, services.ErrTooManyAttempts):
		utils.ErrorResponse(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many wrong attempts, request a new code")
	case errors.Is(err, services.ErrAccountSuspended):
		utils.ForbiddenResponse(c)
	case errors.Is(err, interfaces.ErrAlreadyPaid):
		utils.ConflictResponse(c, "This ride is already settled")
	default:
		utils.InternalServerErrorResponse(c)
	}
}

package handlers

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DriverHandler serves the driver app: onboarding, presence, the offer
// inbox and ride execution.
type DriverHandler struct {
	partnerService  services.PartnerService
	dispatchService services.DispatchService
	rideService     services.RideService
	presenceService services.PresenceService
}

func NewDriverHandler(
	partnerService services.PartnerService,
	dispatchService services.DispatchService,
	rideService services.RideService,
	presenceService services.PresenceService,
) *DriverHandler {
	return &DriverHandler{
		partnerService:  partnerService,
		dispatchService: dispatchService,
		rideService:     rideService,
		presenceService: presenceService,
	}
}

func (h *DriverHandler) Register(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.RegisterDriverInput
	if !bindAndValidate(c, &input) {
		return
	}

	partner, err := h.partnerService.RegisterDriver(c.Request.Context(), userID, &input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Registration submitted for approval", partner)
}

func (h *DriverHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	partner, err := h.partnerService.DriverProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Profile retrieved", partner)
}

// SetOnline toggles presence. Going offline mid-ride keeps the active
// ride but stops new offers.
func (h *DriverHandler) SetOnline(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Online bool `json:"online"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if err := h.partnerService.SetDriverOnline(c.Request.Context(), userID, req.Online); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Availability updated", gin.H{"online": req.Online})
}

// UpdateLocation is the REST fallback for drivers without a live
// websocket connection.
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Latitude  float64 `json:"latitude" validate:"required"`
		Longitude float64 `json:"longitude" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return
	}

	partner, err := h.partnerService.DriverProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	loc := models.NewPoint(req.Latitude, req.Longitude)
	if err := h.presenceService.UpdateLocation(c.Request.Context(), partner.ID, loc); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Location updated", nil)
}

// GetCurrentOffer returns the pending offer, if any, so the app can
// restore its countdown after a restart.
func (h *DriverHandler) GetCurrentOffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	partner, err := h.partnerService.DriverProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	offer := h.dispatchService.OfferForPartner(partner.ID)
	utils.SuccessResponse(c, "Current offer retrieved", offer)
}

func (h *DriverHandler) AcceptOffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ride, err := h.dispatchService.AcceptOffer(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Ride accepted", ride)
}

func (h *DriverHandler) DeclineOffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.dispatchService.DeclineOffer(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Offer declined", nil)
}

func (h *DriverHandler) GetActiveRide(c *gin.Context) {
	partnerID, ok := h.partnerID(c)
	if !ok {
		return
	}

	ride, err := h.rideService.ActiveRideForPartner(c.Request.Context(), partnerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Active ride retrieved", ride)
}

func (h *DriverHandler) MarkArriving(c *gin.Context) {
	h.rideTransition(c, h.rideService.MarkArriving)
}

func (h *DriverHandler) MarkArrived(c *gin.Context) {
	h.rideTransition(c, h.rideService.MarkArrived)
}

// StartTrip checks the rider's pickup code before the meter starts.
func (h *DriverHandler) StartTrip(c *gin.Context) {
	partnerID, ok := h.partnerID(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req struct {
		OTP string `json:"otp" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return
	}

	ride, err := h.rideService.StartTrip(c.Request.Context(), rideID, partnerID, req.OTP)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Trip started", ride)
}

func (h *DriverHandler) CompleteTrip(c *gin.Context) {
	h.rideTransition(c, h.rideService.CompleteTrip)
}

func (h *DriverHandler) CancelRide(c *gin.Context) {
	partnerID, ok := h.partnerID(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	ride, err := h.rideService.CancelByPartner(c.Request.Context(), rideID, partnerID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Ride cancelled", ride)
}

func (h *DriverHandler) GetHistory(c *gin.Context) {
	partnerID, ok := h.partnerID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	rides, total, err := h.rideService.PartnerHistory(c.Request.Context(), partnerID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Ride history retrieved", rides, &utils.Meta{Pagination: params.BuildMeta(total)})
}

func (h *DriverHandler) GetEarnings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	earnings, err := h.partnerService.Earnings(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Earnings retrieved", earnings)
}

type rideTransitionFn func(ctx context.Context, rideID, partnerID primitive.ObjectID) (*models.Ride, error)

func (h *DriverHandler) rideTransition(c *gin.Context, fn rideTransitionFn) {
	partnerID, ok := h.partnerID(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ride, err := fn(c.Request.Context(), rideID, partnerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Ride updated", ride)
}

func (h *DriverHandler) partnerID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return primitive.NilObjectID, false
	}

	partner, err := h.partnerService.DriverProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return primitive.NilObjectID, false
	}
	return partner.ID, true
}

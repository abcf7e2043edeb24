package handlers

import (
	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
)

type RideHandler struct {
	rideService services.RideService
}

func NewRideHandler(rideService services.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// RequestRide books a ride and starts the driver search.
func (h *RideHandler) RequestRide(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.RideRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ride, err := h.rideService.RequestRide(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Ride requested, looking for a driver", ride)
}

func (h *RideHandler) GetRide(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), rideID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Ride retrieved", ride)
}

// GetRideOTP returns the pickup code. Rider only.
func (h *RideHandler) GetRideOTP(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	otp, err := h.rideService.GetRideOTP(c.Request.Context(), rideID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Pickup code retrieved", gin.H{"otp": otp})
}

func (h *RideHandler) GetActiveRide(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ride, err := h.rideService.ActiveRideForRider(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Active ride retrieved", ride)
}

func (h *RideHandler) CancelRide(c *gin.Context) {
	userID, ok := currentUserID(c)
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

	ride, err := h.rideService.CancelByRider(c.Request.Context(), rideID, userID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Ride cancelled", ride)
}

func (h *RideHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	rides, total, err := h.rideService.RiderHistory(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Ride history retrieved", rides, &utils.Meta{Pagination: params.BuildMeta(total)})
}

package handlers

import (
	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
)

// PartnerHandler onboards the non-driver partner types.
type PartnerHandler struct {
	partnerService services.PartnerService
}

func NewPartnerHandler(partnerService services.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

func (h *PartnerHandler) RegisterMechanic(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.RegisterMechanicInput
	if !bindAndValidate(c, &input) {
		return
	}

	mechanic, err := h.partnerService.RegisterMechanic(c.Request.Context(), userID, &input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Garage registered", mechanic)
}

func (h *PartnerHandler) RegisterHospital(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.RegisterHospitalInput
	if !bindAndValidate(c, &input) {
		return
	}

	hospital, err := h.partnerService.RegisterHospital(c.Request.Context(), userID, &input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Hospital registered, pending approval", hospital)
}

package handlers

import (
	"pathgo/internal/models"
	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the back office: partner approval queues and
// onboarding for the non-driver partner types.
type AdminHandler struct {
	partnerService services.PartnerService
}

func NewAdminHandler(partnerService services.PartnerService) *AdminHandler {
	return &AdminHandler{partnerService: partnerService}
}

func (h *AdminHandler) ListDrivers(c *gin.Context) {
	status := models.PartnerStatus(c.DefaultQuery("status", string(models.PartnerStatusPending)))

	params := utils.GetPaginationParams(c)
	drivers, total, err := h.partnerService.ListDrivers(c.Request.Context(), status, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Drivers retrieved", drivers, &utils.Meta{Pagination: params.BuildMeta(total)})
}

func (h *AdminHandler) ApproveDriver(c *gin.Context) {
	partnerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	partner, err := h.partnerService.ApproveDriver(c.Request.Context(), partnerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Driver approved", partner)
}

func (h *AdminHandler) RejectDriver(c *gin.Context) {
	partnerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	partner, err := h.partnerService.RejectDriver(c.Request.Context(), partnerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Driver rejected", partner)
}

func (h *AdminHandler) ApproveHospital(c *gin.Context) {
	partnerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	hospital, err := h.partnerService.ApproveHospital(c.Request.Context(), partnerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Hospital approved", hospital)
}

package handlers

import (
	"context"

	"pathgo/internal/models"
	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CureHandler struct {
	cureService services.CureService
}

func NewCureHandler(cureService services.CureService) *CureHandler {
	return &CureHandler{cureService: cureService}
}

// RequestEmergency raises a medical emergency and dispatches the
// nearest free ambulance.
func (h *CureHandler) RequestEmergency(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.EmergencyInput
	if !bindAndValidate(c, &input) {
		return
	}

	ec, err := h.cureService.RequestEmergency(c.Request.Context(), userID, &input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Emergency raised", ec)
}

func (h *CureHandler) GetOpenCase(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ec, err := h.cureService.OpenCase(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Open case retrieved", ec)
}

func (h *CureHandler) CancelCase(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	caseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ec, err := h.cureService.CancelCase(c.Request.Context(), caseID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Case cancelled", ec)
}

func (h *CureHandler) MarkEnRoute(c *gin.Context) {
	h.caseTransition(c, h.cureService.MarkEnRoute, "Ambulance en route")
}

func (h *CureHandler) MarkAdmitted(c *gin.Context) {
	h.caseTransition(c, h.cureService.MarkAdmitted, "Patient admitted")
}

func (h *CureHandler) CloseCase(c *gin.Context) {
	h.caseTransition(c, h.cureService.CloseCase, "Case closed")
}

func (h *CureHandler) GetUserCases(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	cases, total, err := h.cureService.UserCases(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Cases retrieved", cases, &utils.Meta{Pagination: params.BuildMeta(total)})
}

func (h *CureHandler) GetPartnerCases(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	cases, total, err := h.cureService.PartnerCases(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Cases retrieved", cases, &utils.Meta{Pagination: params.BuildMeta(total)})
}

func (h *CureHandler) ListHospitals(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	hospitals, total, err := h.cureService.ListHospitals(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Hospitals retrieved", hospitals, &utils.Meta{Pagination: params.BuildMeta(total)})
}

func (h *CureHandler) SearchDoctors(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	doctors, total, err := h.cureService.SearchDoctors(c.Request.Context(), c.Query("specialization"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Doctors retrieved", doctors, &utils.Meta{Pagination: params.BuildMeta(total)})
}

func (h *CureHandler) GetHospitalDoctors(c *gin.Context) {
	partnerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	doctors, err := h.cureService.HospitalDoctors(c.Request.Context(), partnerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Doctors retrieved", doctors)
}

func (h *CureHandler) AddDoctor(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.DoctorInput
	if !bindAndValidate(c, &input) {
		return
	}

	doctor, err := h.cureService.AddDoctor(c.Request.Context(), userID, &input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Doctor added", doctor)
}

func (h *CureHandler) AddAmbulance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.AmbulanceInput
	if !bindAndValidate(c, &input) {
		return
	}

	ambulance, err := h.cureService.AddAmbulance(c.Request.Context(), userID, &input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Ambulance added", ambulance)
}

func (h *CureHandler) GetPartnerAmbulances(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ambulances, err := h.cureService.PartnerAmbulances(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Ambulances retrieved", ambulances)
}

type caseTransitionFn = func(ctx context.Context, caseID, partnerUserID primitive.ObjectID) (*models.EmergencyCase, error)

func (h *CureHandler) caseTransition(c *gin.Context, fn caseTransitionFn, message string) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	caseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ec, err := fn(c.Request.Context(), caseID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, message, ec)
}

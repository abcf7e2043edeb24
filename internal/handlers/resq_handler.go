package handlers

import (
	"strconv"

	"pathgo/internal/models"
	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
)

type ResQHandler struct {
	resqService services.ResQService
}

func NewResQHandler(resqService services.ResQService) *ResQHandler {
	return &ResQHandler{resqService: resqService}
}

func (h *ResQHandler) RequestAssistance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.GarageRequestInput
	if !bindAndValidate(c, &input) {
		return
	}

	req, err := h.resqService.RequestAssistance(c.Request.Context(), userID, &input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Assistance requested", req)
}

func (h *ResQHandler) NearbyMechanics(c *gin.Context) {
	_, ok := currentUserID(c)
	if !ok {
		return
	}

	lat, err1 := strconv.ParseFloat(c.Query("latitude"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("longitude"), 64)
	if err1 != nil || err2 != nil {
		utils.BadRequestResponse(c, "latitude and longitude are required")
		return
	}
	radius, err := strconv.ParseFloat(c.DefaultQuery("radius_km", "10"), 64)
	if err != nil || radius <= 0 || radius > utils.MaxSearchRadius {
		radius = utils.DefaultSearchRadius
	}

	mechanics, err := h.resqService.NearbyMechanics(c.Request.Context(), models.NewPoint(lat, lng), radius)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Nearby mechanics retrieved", mechanics)
}

// OpenRequests lists unclaimed breakdowns near the mechanic's garage.
func (h *ResQHandler) OpenRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	radius, err := strconv.ParseFloat(c.DefaultQuery("radius_km", "10"), 64)
	if err != nil || radius <= 0 || radius > utils.MaxSearchRadius {
		radius = utils.DefaultSearchRadius
	}

	reqs, err := h.resqService.NearbyOpenRequests(c.Request.Context(), userID, radius)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Open requests retrieved", reqs)
}

func (h *ResQHandler) AcceptRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	req, err := h.resqService.AcceptRequest(c.Request.Context(), requestID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Request accepted", req)
}

func (h *ResQHandler) MarkEnRoute(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	req, err := h.resqService.MarkEnRoute(c.Request.Context(), requestID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Marked en route", req)
}

func (h *ResQHandler) CompleteRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Charge float64 `json:"charge" validate:"gt=0"`
	}
	if !bindAndValidate(c, &body) {
		return
	}

	req, err := h.resqService.CompleteRequest(c.Request.Context(), requestID, userID, body.Charge)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Request completed", req)
}

func (h *ResQHandler) CancelRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	req, err := h.resqService.CancelRequest(c.Request.Context(), requestID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Request cancelled", req)
}

func (h *ResQHandler) GetUserRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	reqs, total, err := h.resqService.UserRequests(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Requests retrieved", reqs, &utils.Meta{Pagination: params.BuildMeta(total)})
}

func (h *ResQHandler) GetMechanicRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	reqs, total, err := h.resqService.MechanicRequests(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Requests retrieved", reqs, &utils.Meta{Pagination: params.BuildMeta(total)})
}

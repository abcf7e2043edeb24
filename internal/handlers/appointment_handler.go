package handlers

import (
	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	appointmentService services.AppointmentService
}

func NewAppointmentHandler(appointmentService services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentService: appointmentService}
}

// GetSlots lists a doctor's free slots for the given date.
func (h *AppointmentHandler) GetSlots(c *gin.Context) {
	doctorID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		utils.BadRequestResponse(c, "date is required (YYYY-MM-DD)")
		return
	}

	slots, err := h.appointmentService.AvailableSlots(c.Request.Context(), doctorID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Available slots retrieved", gin.H{"date": date, "slots": slots})
}

func (h *AppointmentHandler) Book(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.BookAppointmentInput
	if !bindAndValidate(c, &input) {
		return
	}

	appt, err := h.appointmentService.Book(c.Request.Context(), userID, &input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Appointment booked", appt)
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	apptID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	appt, err := h.appointmentService.Confirm(c.Request.Context(), apptID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Appointment confirmed", appt)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	apptID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	appt, err := h.appointmentService.Complete(c.Request.Context(), apptID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Appointment completed", appt)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	apptID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	appt, err := h.appointmentService.Cancel(c.Request.Context(), apptID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Appointment cancelled", appt)
}

func (h *AppointmentHandler) GetUserAppointments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	appts, total, err := h.appointmentService.UserAppointments(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Appointments retrieved", appts, &utils.Meta{Pagination: params.BuildMeta(total)})
}

func (h *AppointmentHandler) GetPartnerAppointments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	appts, total, err := h.appointmentService.PartnerAppointments(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Appointments retrieved", appts, &utils.Meta{Pagination: params.BuildMeta(total)})
}

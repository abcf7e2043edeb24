package services

import (
	"context"
	"errors"
	"time"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"
	"pathgo/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrSlotUnavailable = errors.New("slot is no longer available")

type BookAppointmentInput struct {
	DoctorID     primitive.ObjectID `json:"doctor_id" validate:"required"`
	PatientName  string             `json:"patient_name" validate:"required"`
	PatientPhone string             `json:"patient_phone" validate:"required"`
	Date         string             `json:"date" validate:"required"` // YYYY-MM-DD
	Slot         string             `json:"slot" validate:"required"`
}

// AppointmentService books doctor consultations. Availability is the
// doctor's published slots minus the slots already booked for the day;
// the unique slot index is the final arbiter when two users race.
type AppointmentService interface {
	AvailableSlots(ctx context.Context, doctorID primitive.ObjectID, date string) ([]string, error)
	Book(ctx context.Context, userID primitive.ObjectID, input *BookAppointmentInput) (*models.Appointment, error)
	Confirm(ctx context.Context, apptID, partnerUserID primitive.ObjectID) (*models.Appointment, error)
	Complete(ctx context.Context, apptID, partnerUserID primitive.ObjectID) (*models.Appointment, error)
	Cancel(ctx context.Context, apptID, userID primitive.ObjectID) (*models.Appointment, error)
	UserAppointments(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Appointment, int64, error)
	PartnerAppointments(ctx context.Context, partnerUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Appointment, int64, error)
}

type appointmentService struct {
	apptRepo    interfaces.AppointmentRepository
	doctorRepo  interfaces.DoctorRepository
	partnerRepo interfaces.CurePartnerRepository
	userRepo    interfaces.UserRepository
	txnRepo     interfaces.TransactionRepository
	notify      NotificationService
	logger      *logger.Logger
}

func NewAppointmentService(
	apptRepo interfaces.AppointmentRepository,
	doctorRepo interfaces.DoctorRepository,
	partnerRepo interfaces.CurePartnerRepository,
	userRepo interfaces.UserRepository,
	txnRepo interfaces.TransactionRepository,
	notify NotificationService,
	logger *logger.Logger,
) AppointmentService {
	return &appointmentService{
		apptRepo:    apptRepo,
		doctorRepo:  doctorRepo,
		partnerRepo: partnerRepo,
		userRepo:    userRepo,
		txnRepo:     txnRepo,
		notify:      notify,
		logger:      logger,
	}
}

func (s *appointmentService) AvailableSlots(ctx context.Context, doctorID primitive.ObjectID, date string) ([]string, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, errors.New("date must be YYYY-MM-DD")
	}

	doctor, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	booked, err := s.apptRepo.GetByDoctor(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, appt := range booked {
		taken[appt.Slot] = true
	}

	free := make([]string, 0, len(doctor.Slots))
	for _, slot := range doctor.Slots {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free, nil
}

func (s *appointmentService) Book(ctx context.Context, userID primitive.ObjectID, input *BookAppointmentInput) (*models.Appointment, error) {
	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		return nil, errors.New("date must be YYYY-MM-DD")
	}

	doctor, err := s.doctorRepo.GetByID(ctx, input.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Active {
		return nil, interfaces.ErrNotFound
	}
	if !slotOffered(doctor.Slots, input.Slot) {
		return nil, ErrSlotUnavailable
	}

	appt := &models.Appointment{
		UserID:         userID,
		PartnerID:      doctor.PartnerID,
		DoctorID:       doctor.ID,
		PatientName:    input.PatientName,
		PatientPhone:   input.PatientPhone,
		Date:           input.Date,
		Slot:           input.Slot,
		Fee:            doctor.Fee,
		DoctorName:     doctor.Name,
		Specialization: doctor.Specialization,
	}
	if err := s.apptRepo.Create(ctx, appt); err != nil {
		if errors.Is(err, interfaces.ErrSlotTaken) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	if hospital, err := s.partnerRepo.GetByID(ctx, doctor.PartnerID); err == nil {
		s.notify.NotifyUser(ctx, hospital.UserID, "appointment_booked", "New appointment",
			input.PatientName+" with "+doctor.Name+" on "+input.Date+" "+input.Slot,
			map[string]interface{}{"appointment_id": appt.ID.Hex()})
	}

	s.logger.WithField("appointment_id", appt.ID.Hex()).Info("appointment booked")
	return appt, nil
}

func (s *appointmentService) Confirm(ctx context.Context, apptID, partnerUserID primitive.ObjectID) (*models.Appointment, error) {
	return s.partnerUpdate(ctx, apptID, partnerUserID,
		models.AppointmentBooked, models.AppointmentConfirmed, "appointment_confirmed")
}

func (s *appointmentService) Complete(ctx context.Context, apptID, partnerUserID primitive.ObjectID) (*models.Appointment, error) {
	updated, err := s.partnerUpdate(ctx, apptID, partnerUserID,
		models.AppointmentConfirmed, models.AppointmentCompleted, "appointment_completed")
	if err != nil {
		return nil, err
	}

	if updated.Fee > 0 {
		breakup := utils.SplitFareGST(updated.Fee, utils.GSTRate)
		txn := &models.Transaction{
			Kind:      models.TransactionKindConsultation,
			Status:    models.TransactionSucceeded,
			UserID:    updated.UserID,
			PartnerID: &updated.PartnerID,
			RefID:     updated.ID,
			Amount:    updated.Fee,
			BaseFare:  breakup.Base,
			GST:       breakup.GST,
			Currency:  utils.DefaultCurrency,
			Method:    models.PaymentMethodCash,
		}
		if err := s.txnRepo.Create(ctx, txn); err != nil {
			s.logger.WithError(err).Error("failed to record consultation transaction")
		}
	}
	return updated, nil
}

func (s *appointmentService) Cancel(ctx context.Context, apptID, userID primitive.ObjectID) (*models.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.UserID != userID {
		return nil, ErrNotRideOwner
	}
	if !appt.Status.CanTransition(models.AppointmentCancelled) {
		return nil, ErrRideConflict
	}

	updated, err := s.apptRepo.UpdateStatus(ctx, apptID, appt.Status, models.AppointmentCancelled)
	if err != nil {
		if errors.Is(err, interfaces.ErrStaleWrite) {
			return nil, ErrRideConflict
		}
		return nil, err
	}

	if hospital, err := s.partnerRepo.GetByID(ctx, updated.PartnerID); err == nil {
		s.notify.NotifyUser(ctx, hospital.UserID, "appointment_cancelled", "Appointment cancelled",
			updated.PatientName+" on "+updated.Date+" "+updated.Slot,
			map[string]interface{}{"appointment_id": updated.ID.Hex()})
	}
	return updated, nil
}

func (s *appointmentService) UserAppointments(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Appointment, int64, error) {
	return s.apptRepo.GetByUser(ctx, userID, params)
}

func (s *appointmentService) PartnerAppointments(ctx context.Context, partnerUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Appointment, int64, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, partnerUserID)
	if err != nil {
		return nil, 0, err
	}
	return s.apptRepo.GetByPartner(ctx, partner.ID, params)
}

func (s *appointmentService) partnerUpdate(ctx context.Context, apptID, partnerUserID primitive.ObjectID, from, to models.AppointmentStatus, event string) (*models.Appointment, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, partnerUserID)
	if err != nil {
		return nil, err
	}

	appt, err := s.apptRepo.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.PartnerID != partner.ID {
		return nil, ErrNotRideOwner
	}

	updated, err := s.apptRepo.UpdateStatus(ctx, apptID, from, to)
	if err != nil {
		if errors.Is(err, interfaces.ErrStaleWrite) {
			return nil, ErrRideConflict
		}
		return nil, err
	}

	s.notify.NotifyUser(ctx, updated.UserID, event, "", "", map[string]interface{}{
		"appointment_id": updated.ID.Hex(),
		"status":         string(updated.Status),
	})
	return updated, nil
}

func slotOffered(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

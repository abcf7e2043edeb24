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

type EmergencyInput struct {
	PatientName  string          `json:"patient_name" validate:"required"`
	Condition    string          `json:"condition"`
	Location     models.Location `json:"location" validate:"required"`
	ContactPhone string          `json:"contact_phone" validate:"required"`
}

type DoctorInput struct {
	Name           string   `json:"name" validate:"required"`
	Specialization string   `json:"specialization" validate:"required"`
	Qualification  string   `json:"qualification"`
	Fee            float64  `json:"fee" validate:"gte=0"`
	Slots          []string `json:"slots"`
}

type AmbulanceInput struct {
	Plate       string `json:"plate" validate:"required"`
	DriverName  string `json:"driver_name"`
	DriverPhone string `json:"driver_phone"`
}

// CureService covers the medical side: emergency ambulance dispatch to
// the nearest hospital with a free vehicle, plus hospital, doctor and
// ambulance management.
type CureService interface {
	RequestEmergency(ctx context.Context, userID primitive.ObjectID, input *EmergencyInput) (*models.EmergencyCase, error)
	MarkEnRoute(ctx context.Context, caseID, partnerUserID primitive.ObjectID) (*models.EmergencyCase, error)
	MarkAdmitted(ctx context.Context, caseID, partnerUserID primitive.ObjectID) (*models.EmergencyCase, error)
	CloseCase(ctx context.Context, caseID, partnerUserID primitive.ObjectID) (*models.EmergencyCase, error)
	CancelCase(ctx context.Context, caseID, userID primitive.ObjectID) (*models.EmergencyCase, error)
	OpenCase(ctx context.Context, userID primitive.ObjectID) (*models.EmergencyCase, error)
	UserCases(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyCase, int64, error)
	PartnerCases(ctx context.Context, partnerUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyCase, int64, error)

	ListHospitals(ctx context.Context, params *utils.PaginationParams) ([]*models.CurePartner, int64, error)
	SearchDoctors(ctx context.Context, specialization string, params *utils.PaginationParams) ([]*models.Doctor, int64, error)
	HospitalDoctors(ctx context.Context, partnerID primitive.ObjectID) ([]*models.Doctor, error)
	AddDoctor(ctx context.Context, partnerUserID primitive.ObjectID, input *DoctorInput) (*models.Doctor, error)
	AddAmbulance(ctx context.Context, partnerUserID primitive.ObjectID, input *AmbulanceInput) (*models.Ambulance, error)
	PartnerAmbulances(ctx context.Context, partnerUserID primitive.ObjectID) ([]*models.Ambulance, error)
}

type cureService struct {
	partnerRepo   interfaces.CurePartnerRepository
	doctorRepo    interfaces.DoctorRepository
	ambulanceRepo interfaces.AmbulanceRepository
	caseRepo      interfaces.EmergencyRepository
	notify        NotificationService
	logger        *logger.Logger
}

func NewCureService(
	partnerRepo interfaces.CurePartnerRepository,
	doctorRepo interfaces.DoctorRepository,
	ambulanceRepo interfaces.AmbulanceRepository,
	caseRepo interfaces.EmergencyRepository,
	notify NotificationService,
	logger *logger.Logger,
) CureService {
	return &cureService{
		partnerRepo:   partnerRepo,
		doctorRepo:    doctorRepo,
		ambulanceRepo: ambulanceRepo,
		caseRepo:      caseRepo,
		notify:        notify,
		logger:        logger,
	}
}

func (s *cureService) RequestEmergency(ctx context.Context, userID primitive.ObjectID, input *EmergencyInput) (*models.EmergencyCase, error) {
	if _, err := s.caseRepo.GetOpenByUser(ctx, userID); err == nil {
		return nil, ErrActiveRideExists
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	ec := &models.EmergencyCase{
		UserID:       userID,
		PatientName:  input.PatientName,
		Condition:    input.Condition,
		Location:     input.Location,
		ContactPhone: input.ContactPhone,
	}
	if err := s.caseRepo.Create(ctx, ec); err != nil {
		return nil, err
	}

	assigned, err := s.assignAmbulance(ctx, ec)
	if err != nil {
		s.logger.WithError(err).WithField("case_id", ec.ID.Hex()).Warn("no ambulance assigned yet")
		return ec, nil
	}
	return assigned, nil
}

// assignAmbulance walks hospitals outward from the patient and claims
// the first free ambulance. The claim is the atomic step; the case
// transition after it can only lose to a user cancel, in which case the
// ambulance is released.
func (s *cureService) assignAmbulance(ctx context.Context, ec *models.EmergencyCase) (*models.EmergencyCase, error) {
	hospitals, err := s.partnerRepo.FindNearby(ctx, ec.Location, utils.EmergencySearchRadius, 10)
	if err != nil {
		return nil, err
	}
	if len(hospitals) == 0 {
		return nil, interfaces.ErrNotFound
	}

	for _, hospital := range hospitals {
		ambulance, err := s.ambulanceRepo.ClaimAvailable(ctx, hospital.ID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				continue
			}
			return nil, err
		}

		now := time.Now()
		updated, err := s.caseRepo.Transition(ctx, ec.ID, models.EmergencyRequested, ec.Version,
			models.EmergencyAmbulanceAssigned, map[string]interface{}{
				"partner_id":   hospital.ID,
				"ambulance_id": ambulance.ID,
				"assigned_at":  now,
			})
		if err != nil {
			if relErr := s.ambulanceRepo.SetAvailability(ctx, ambulance.ID, true); relErr != nil {
				s.logger.WithError(relErr).Error("failed to release claimed ambulance")
			}
			return nil, err
		}

		s.notify.NotifyUser(ctx, hospital.UserID, "emergency_assigned", "Emergency dispatch",
			ec.PatientName+": "+ec.Condition, map[string]interface{}{
				"case_id":      updated.ID.Hex(),
				"ambulance_id": ambulance.ID.Hex(),
			})
		s.notify.NotifyUser(ctx, ec.UserID, "ambulance_assigned", "Ambulance on the way",
			ambulance.Plate+" from "+hospital.Name, map[string]interface{}{
				"case_id":      updated.ID.Hex(),
				"status":       string(updated.Status),
				"plate":        ambulance.Plate,
				"driver_phone": ambulance.DriverPhone,
			})

		s.logger.WithField("case_id", updated.ID.Hex()).
			WithField("hospital_id", hospital.ID.Hex()).
			Info("ambulance assigned")
		return updated, nil
	}

	return nil, interfaces.ErrNotFound
}

func (s *cureService) MarkEnRoute(ctx context.Context, caseID, partnerUserID primitive.ObjectID) (*models.EmergencyCase, error) {
	return s.partnerTransition(ctx, caseID, partnerUserID,
		models.EmergencyAmbulanceAssigned, models.EmergencyEnRoute, nil, "emergency_en_route")
}

func (s *cureService) MarkAdmitted(ctx context.Context, caseID, partnerUserID primitive.ObjectID) (*models.EmergencyCase, error) {
	now := time.Now()
	return s.partnerTransition(ctx, caseID, partnerUserID,
		models.EmergencyEnRoute, models.EmergencyAdmitted,
		map[string]interface{}{"admitted_at": now}, "emergency_admitted")
}

func (s *cureService) CloseCase(ctx context.Context, caseID, partnerUserID primitive.ObjectID) (*models.EmergencyCase, error) {
	now := time.Now()
	updated, err := s.partnerTransition(ctx, caseID, partnerUserID,
		models.EmergencyAdmitted, models.EmergencyClosed,
		map[string]interface{}{"closed_at": now}, "emergency_closed")
	if err != nil {
		return nil, err
	}
	s.releaseAmbulance(ctx, updated)
	return updated, nil
}

func (s *cureService) CancelCase(ctx context.Context, caseID, userID primitive.ObjectID) (*models.EmergencyCase, error) {
	ec, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if ec.UserID != userID {
		return nil, ErrNotRideOwner
	}
	if !ec.Status.CanTransition(models.EmergencyCancelled) {
		return nil, ErrRideConflict
	}

	updated, err := s.caseRepo.Transition(ctx, caseID, ec.Status, ec.Version, models.EmergencyCancelled, nil)
	if err != nil {
		if errors.Is(err, interfaces.ErrStaleWrite) {
			return nil, ErrRideConflict
		}
		return nil, err
	}

	s.releaseAmbulance(ctx, updated)
	if updated.PartnerID != nil {
		if hospital, err := s.partnerRepo.GetByID(ctx, *updated.PartnerID); err == nil {
			s.notify.NotifyUser(ctx, hospital.UserID, "emergency_cancelled", "Emergency cancelled",
				"", map[string]interface{}{"case_id": updated.ID.Hex()})
		}
	}
	return updated, nil
}

func (s *cureService) OpenCase(ctx context.Context, userID primitive.ObjectID) (*models.EmergencyCase, error) {
	ec, err := s.caseRepo.GetOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrNoOpenCase
		}
		return nil, err
	}
	return ec, nil
}

func (s *cureService) UserCases(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyCase, int64, error) {
	return s.caseRepo.GetByUser(ctx, userID, params)
}

func (s *cureService) PartnerCases(ctx context.Context, partnerUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyCase, int64, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, partnerUserID)
	if err != nil {
		return nil, 0, err
	}
	return s.caseRepo.GetByPartner(ctx, partner.ID, params)
}

func (s *cureService) ListHospitals(ctx context.Context, params *utils.PaginationParams) ([]*models.CurePartner, int64, error) {
	return s.partnerRepo.List(ctx, params)
}

func (s *cureService) SearchDoctors(ctx context.Context, specialization string, params *utils.PaginationParams) ([]*models.Doctor, int64, error) {
	return s.doctorRepo.Search(ctx, specialization, params)
}

func (s *cureService) HospitalDoctors(ctx context.Context, partnerID primitive.ObjectID) ([]*models.Doctor, error) {
	return s.doctorRepo.GetByPartner(ctx, partnerID)
}

func (s *cureService) AddDoctor(ctx context.Context, partnerUserID primitive.ObjectID, input *DoctorInput) (*models.Doctor, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, partnerUserID)
	if err != nil {
		return nil, err
	}

	doctor := &models.Doctor{
		PartnerID:      partner.ID,
		Name:           input.Name,
		Specialization: input.Specialization,
		Qualification:  input.Qualification,
		Fee:            input.Fee,
		Slots:          input.Slots,
	}
	if err := s.doctorRepo.Create(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

func (s *cureService) AddAmbulance(ctx context.Context, partnerUserID primitive.ObjectID, input *AmbulanceInput) (*models.Ambulance, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, partnerUserID)
	if err != nil {
		return nil, err
	}

	ambulance := &models.Ambulance{
		PartnerID:   partner.ID,
		Plate:       input.Plate,
		DriverName:  input.DriverName,
		DriverPhone: input.DriverPhone,
	}
	if err := s.ambulanceRepo.Create(ctx, ambulance); err != nil {
		return nil, err
	}
	return ambulance, nil
}

func (s *cureService) PartnerAmbulances(ctx context.Context, partnerUserID primitive.ObjectID) ([]*models.Ambulance, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, partnerUserID)
	if err != nil {
		return nil, err
	}
	return s.ambulanceRepo.GetByPartner(ctx, partner.ID)
}

func (s *cureService) partnerTransition(ctx context.Context, caseID, partnerUserID primitive.ObjectID, from, to models.EmergencyStatus, updates map[string]interface{}, event string) (*models.EmergencyCase, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, partnerUserID)
	if err != nil {
		return nil, err
	}

	ec, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if ec.PartnerID == nil || *ec.PartnerID != partner.ID {
		return nil, ErrNotRideOwner
	}

	updated, err := s.caseRepo.Transition(ctx, caseID, from, ec.Version, to, updates)
	if err != nil {
		if errors.Is(err, interfaces.ErrStaleWrite) {
			return nil, ErrRideConflict
		}
		return nil, err
	}

	s.notify.NotifyUser(ctx, updated.UserID, event, "", "", map[string]interface{}{
		"case_id": updated.ID.Hex(),
		"status":  string(updated.Status),
	})
	return updated, nil
}

func (s *cureService) releaseAmbulance(ctx context.Context, ec *models.EmergencyCase) {
	if ec.AmbulanceID == nil {
		return
	}
	if err := s.ambulanceRepo.SetAvailability(ctx, *ec.AmbulanceID, true); err != nil {
		s.logger.WithError(err).WithField("case_id", ec.ID.Hex()).Error("failed to release ambulance")
	}
}

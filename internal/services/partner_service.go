package services

import (
	"context"
	"errors"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"
	"pathgo/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrAlreadyRegistered = errors.New("a partner profile already exists for this account")
	ErrPartnerNotApproved = errors.New("partner is not approved yet")
)

type RegisterDriverInput struct {
	Name         string `json:"name" validate:"required"`
	VehicleModel string `json:"vehicle_model" validate:"required"`
	VehiclePlate string `json:"vehicle_plate" validate:"required"`
	LicenseNo    string `json:"license_no" validate:"required"`
}

type RegisterMechanicInput struct {
	Name       string          `json:"name" validate:"required"`
	GarageName string          `json:"garage_name" validate:"required"`
	Services   []string        `json:"services"`
	Location   models.Location `json:"location" validate:"required"`
}

type RegisterHospitalInput struct {
	Name     string          `json:"name" validate:"required"`
	Address  string          `json:"address"`
	Location models.Location `json:"location" validate:"required"`
}

type DriverEarnings struct {
	TotalRides   int64                 `json:"total_rides"`
	Earnings     float64               `json:"earnings"`
	Rating       float64               `json:"rating"`
	Transactions []*models.Transaction `json:"transactions"`
}

// PartnerService handles partner onboarding and the admin approval
// queue. Drivers register against their user account and start in
// pending; only approved drivers receive offers.
type PartnerService interface {
	RegisterDriver(ctx context.Context, userID primitive.ObjectID, input *RegisterDriverInput) (*models.Partner, error)
	RegisterMechanic(ctx context.Context, userID primitive.ObjectID, input *RegisterMechanicInput) (*models.Mechanic, error)
	RegisterHospital(ctx context.Context, userID primitive.ObjectID, input *RegisterHospitalInput) (*models.CurePartner, error)

	DriverProfile(ctx context.Context, userID primitive.ObjectID) (*models.Partner, error)
	SetDriverOnline(ctx context.Context, userID primitive.ObjectID, online bool) error
	Earnings(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) (*DriverEarnings, error)

	ListDrivers(ctx context.Context, status models.PartnerStatus, params *utils.PaginationParams) ([]*models.Partner, int64, error)
	ApproveDriver(ctx context.Context, partnerID primitive.ObjectID) (*models.Partner, error)
	RejectDriver(ctx context.Context, partnerID primitive.ObjectID) (*models.Partner, error)
	ApproveHospital(ctx context.Context, partnerID primitive.ObjectID) (*models.CurePartner, error)
}

type partnerService struct {
	partnerRepo     interfaces.PartnerRepository
	mechanicRepo    interfaces.MechanicRepository
	curePartnerRepo interfaces.CurePartnerRepository
	userRepo        interfaces.UserRepository
	txnRepo         interfaces.TransactionRepository
	presence        PresenceService
	notify          NotificationService
	logger          *logger.Logger
}

func NewPartnerService(
	partnerRepo interfaces.PartnerRepository,
	mechanicRepo interfaces.MechanicRepository,
	curePartnerRepo interfaces.CurePartnerRepository,
	userRepo interfaces.UserRepository,
	txnRepo interfaces.TransactionRepository,
	presence PresenceService,
	notify NotificationService,
	logger *logger.Logger,
) PartnerService {
	return &partnerService{
		partnerRepo:     partnerRepo,
		mechanicRepo:    mechanicRepo,
		curePartnerRepo: curePartnerRepo,
		userRepo:        userRepo,
		txnRepo:         txnRepo,
		presence:        presence,
		notify:          notify,
		logger:          logger,
	}
}

func (s *partnerService) RegisterDriver(ctx context.Context, userID primitive.ObjectID, input *RegisterDriverInput) (*models.Partner, error) {
	if _, err := s.partnerRepo.GetByUserID(ctx, userID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	partner := &models.Partner{
		UserID:       userID,
		Name:         input.Name,
		Phone:        user.Phone,
		VehicleModel: input.VehicleModel,
		VehiclePlate: input.VehiclePlate,
		LicenseNo:    input.LicenseNo,
	}
	if err := s.partnerRepo.Create(ctx, partner); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"role": models.RolePartner}); err != nil {
		s.logger.WithError(err).Warn("failed to promote user role to partner")
	}

	s.logger.WithField("partner_id", partner.ID.Hex()).Info("driver registered, pending approval")
	return partner, nil
}

func (s *partnerService) RegisterMechanic(ctx context.Context, userID primitive.ObjectID, input *RegisterMechanicInput) (*models.Mechanic, error) {
	if _, err := s.mechanicRepo.GetByUserID(ctx, userID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	mechanic := &models.Mechanic{
		UserID:     userID,
		Name:       input.Name,
		Phone:      user.Phone,
		GarageName: input.GarageName,
		Services:   input.Services,
		Location:   input.Location,
		IsAvailable: true,
	}
	if err := s.mechanicRepo.Create(ctx, mechanic); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"role": models.RoleMechanic}); err != nil {
		s.logger.WithError(err).Warn("failed to promote user role to mechanic")
	}
	return mechanic, nil
}

func (s *partnerService) RegisterHospital(ctx context.Context, userID primitive.ObjectID, input *RegisterHospitalInput) (*models.CurePartner, error) {
	if _, err := s.curePartnerRepo.GetByUserID(ctx, userID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	hospital := &models.CurePartner{
		UserID:   userID,
		Name:     input.Name,
		Phone:    user.Phone,
		Address:  input.Address,
		Location: input.Location,
	}
	if err := s.curePartnerRepo.Create(ctx, hospital); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"role": models.RoleCurePartner}); err != nil {
		s.logger.WithError(err).Warn("failed to promote user role to cure partner")
	}
	return hospital, nil
}

func (s *partnerService) DriverProfile(ctx context.Context, userID primitive.ObjectID) (*models.Partner, error) {
	return s.partnerRepo.GetByUserID(ctx, userID)
}

func (s *partnerService) SetDriverOnline(ctx context.Context, userID primitive.ObjectID, online bool) error {
	partner, err := s.partnerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if partner.Status != models.PartnerStatusApproved {
		return ErrPartnerNotApproved
	}

	if online {
		return s.presence.GoOnline(ctx, partner.ID)
	}
	return s.presence.GoOffline(ctx, partner.ID)
}

func (s *partnerService) Earnings(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) (*DriverEarnings, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	txns, _, err := s.txnRepo.GetByPartner(ctx, partner.ID, params)
	if err != nil {
		return nil, err
	}

	return &DriverEarnings{
		TotalRides:   partner.TotalRides,
		Earnings:     partner.Earnings,
		Rating:       partner.Rating,
		Transactions: txns,
	}, nil
}

func (s *partnerService) ListDrivers(ctx context.Context, status models.PartnerStatus, params *utils.PaginationParams) ([]*models.Partner, int64, error) {
	return s.partnerRepo.List(ctx, status, params)
}

func (s *partnerService) ApproveDriver(ctx context.Context, partnerID primitive.ObjectID) (*models.Partner, error) {
	return s.setDriverStatus(ctx, partnerID, models.PartnerStatusApproved, "partner_approved",
		"You're approved", "Go online to start receiving rides")
}

func (s *partnerService) RejectDriver(ctx context.Context, partnerID primitive.ObjectID) (*models.Partner, error) {
	return s.setDriverStatus(ctx, partnerID, models.PartnerStatusRejected, "partner_rejected",
		"Application update", "Your driver application was not approved")
}

func (s *partnerService) ApproveHospital(ctx context.Context, partnerID primitive.ObjectID) (*models.CurePartner, error) {
	if err := s.curePartnerRepo.Update(ctx, partnerID, map[string]interface{}{"approved": true}); err != nil {
		return nil, err
	}

	hospital, err := s.curePartnerRepo.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	s.notify.NotifyUser(ctx, hospital.UserID, "partner_approved", "You're approved",
		"Your hospital is now live", map[string]interface{}{"partner_id": hospital.ID.Hex()})
	return hospital, nil
}

func (s *partnerService) setDriverStatus(ctx context.Context, partnerID primitive.ObjectID, status models.PartnerStatus, event, title, body string) (*models.Partner, error) {
	if err := s.partnerRepo.Update(ctx, partnerID, map[string]interface{}{"status": status}); err != nil {
		return nil, err
	}

	partner, err := s.partnerRepo.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	s.notify.NotifyUser(ctx, partner.UserID, event, title, body, map[string]interface{}{
		"partner_id": partner.ID.Hex(),
		"status":     string(partner.Status),
	})
	s.logger.WithField("partner_id", partnerID.Hex()).WithField("status", string(status)).Info("driver status updated")
	return partner, nil
}

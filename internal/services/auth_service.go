package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"pathgo/internal/config"
	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"
	"pathgo/pkg/cache"
	"pathgo/pkg/logger"
	"pathgo/pkg/oauth"
	"pathgo/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidLoginOTP  = errors.New("invalid or expired code")
	ErrTooManyAttempts  = errors.New("too many attempts, request a new code")
	ErrAccountSuspended = errors.New("account is suspended")
)

type SendOTPRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

type VerifyOTPRequest struct {
	Phone string          `json:"phone" validate:"required,phone"`
	OTP   string          `json:"otp" validate:"required"`
	Name  string          `json:"name"`
	Role  models.UserRole `json:"role" validate:"omitempty,oneof=rider partner mechanic cure_partner"`
}

type EmailOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyEmailOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
	Name  string `json:"name"`
}

type GoogleLoginRequest struct {
	Code        string `json:"code"`
	AccessToken string `json:"access_token"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	IsNewUser    bool         `json:"is_new_user"`
}

// AuthService issues JWT sessions. The token is the single session
// truth: no server-side session store, logout only clears the device
// binding, and role comes from the claim on every request.
type AuthService interface {
	SendPhoneOTP(ctx context.Context, req *SendOTPRequest) error
	VerifyPhoneOTP(ctx context.Context, req *VerifyOTPRequest) (*AuthResponse, error)
	SendEmailOTP(ctx context.Context, req *EmailOTPRequest) error
	VerifyEmailOTP(ctx context.Context, req *VerifyEmailOTPRequest) (*AuthResponse, error)
	GoogleLogin(ctx context.Context, req *GoogleLoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error)
	Logout(ctx context.Context, userID primitive.ObjectID) error
}

type authService struct {
	userRepo interfaces.UserRepository
	cache    *cache.RedisCache
	sms      sms.Provider
	email    EmailService
	google   oauth.Provider
	security *config.SecurityConfig
	logger   *logger.Logger
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	cache *cache.RedisCache,
	smsProvider sms.Provider,
	email EmailService,
	google oauth.Provider,
	security *config.SecurityConfig,
	logger *logger.Logger,
) AuthService {
	return &authService{
		userRepo: userRepo,
		cache:    cache,
		sms:      smsProvider,
		email:    email,
		google:   google,
		security: security,
		logger:   logger,
	}
}

type otpRecord struct {
	Code     string `json:"code"`
	Attempts int    `json:"attempts"`
}

func (s *authService) SendPhoneOTP(ctx context.Context, req *SendOTPRequest) error {
	phone := utils.NormalizePhone(req.Phone)
	if !utils.IsValidPhone(phone) {
		return fmt.Errorf("invalid phone number")
	}

	code := utils.GenerateLoginOTP()
	record := otpRecord{Code: code}
	if err := s.cache.Set(ctx, utils.CacheOTPPrefix+phone, record, s.security.LoginOTPExpiry); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	_, err := s.sms.SendSMS(ctx, &sms.Request{
		To:      phone,
		Message: fmt.Sprintf("%s is your %s login code. Valid for %d minutes.", code, utils.AppName, int(s.security.LoginOTPExpiry.Minutes())),
		Type:    "otp",
	})
	if err != nil {
		return fmt.Errorf("failed to send otp: %w", err)
	}

	s.logger.WithField("phone", utils.MaskPhone(phone)).Info("login otp sent")
	return nil
}

func (s *authService) VerifyPhoneOTP(ctx context.Context, req *VerifyOTPRequest) (*AuthResponse, error) {
	phone := utils.NormalizePhone(req.Phone)

	if err := s.checkOTP(ctx, utils.CacheOTPPrefix+phone, req.OTP); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	isNew := false
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		role := req.Role
		if role == "" {
			role = models.RoleRider
		}
		user = &models.User{
			Name:            req.Name,
			Phone:           phone,
			CountryCode:     utils.DefaultCountryCode,
			Role:            role,
			AuthProvider:    models.AuthProviderPhone,
			IsPhoneVerified: true,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		isNew = true
	}

	return s.issueSession(ctx, user, isNew)
}

func (s *authService) SendEmailOTP(ctx context.Context, req *EmailOTPRequest) error {
	code := utils.GenerateLoginOTP()
	record := otpRecord{Code: code}
	if err := s.cache.Set(ctx, utils.CacheOTPPrefix+req.Email, record, s.security.LoginOTPExpiry); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	body := fmt.Sprintf("%s is your %s login code. It expires in %d minutes.",
		code, utils.AppName, int(s.security.LoginOTPExpiry.Minutes()))
	if err := s.email.SendEmail(ctx, req.Email, utils.AppName+" login code", body); err != nil {
		return err
	}

	s.logger.WithField("email", req.Email).Info("email login otp sent")
	return nil
}

func (s *authService) VerifyEmailOTP(ctx context.Context, req *VerifyEmailOTPRequest) (*AuthResponse, error) {
	if err := s.checkOTP(ctx, utils.CacheOTPPrefix+req.Email, req.OTP); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	isNew := false
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		user = &models.User{
			Name:            req.Name,
			Email:           req.Email,
			Role:            models.RoleRider,
			AuthProvider:    models.AuthProviderEmail,
			IsEmailVerified: true,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		isNew = true
	}

	return s.issueSession(ctx, user, isNew)
}

func (s *authService) GoogleLogin(ctx context.Context, req *GoogleLoginRequest) (*AuthResponse, error) {
	accessToken := req.AccessToken
	if accessToken == "" {
		token, err := s.google.ExchangeCode(ctx, req.Code)
		if err != nil {
			return nil, err
		}
		accessToken = token.AccessToken
	}

	info, err := s.google.GetUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if !info.EmailVerified {
		return nil, fmt.Errorf("google account email not verified")
	}

	user, err := s.userRepo.GetByEmail(ctx, info.Email)
	isNew := false
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		user = &models.User{
			Name:            info.Name,
			Email:           info.Email,
			ProfilePhoto:    info.Picture,
			Role:            models.RoleRider,
			AuthProvider:    models.AuthProviderGoogle,
			SocialID:        info.ID,
			IsEmailVerified: true,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		isNew = true
	}

	return s.issueSession(ctx, user, isNew)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	return utils.RefreshAccessToken(refreshToken, s.security.JWTSecret)
}

// Logout clears the push binding so a signed-out device stops getting
// notifications. The JWT itself simply expires; there is no revocation
// list to keep consistent.
func (s *authService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	return s.userRepo.UpdateDeviceToken(ctx, userID, "", "")
}

func (s *authService) checkOTP(ctx context.Context, key, otp string) error {
	var record otpRecord
	if err := s.cache.Get(ctx, key, &record); err != nil {
		return ErrInvalidLoginOTP
	}

	if record.Attempts >= s.security.MaxOTPAttempts {
		_ = s.cache.Delete(ctx, key)
		return ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(otp)) != 1 {
		record.Attempts++
		ttl, err := s.cache.GetTTL(ctx, key)
		if err != nil || ttl <= 0 {
			ttl = time.Minute
		}
		_ = s.cache.Set(ctx, key, record, ttl)
		return ErrInvalidLoginOTP
	}

	// Single use.
	_ = s.cache.Delete(ctx, key)
	return nil
}

func (s *authService) issueSession(ctx context.Context, user *models.User, isNew bool) (*AuthResponse, error) {
	if user.Status == models.UserStatusSuspended {
		return nil, ErrAccountSuspended
	}

	pair, err := utils.GenerateTokenPair(user.ID, string(user.Role), user.Phone, s.security.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	now := time.Now()
	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		s.logger.WithError(err).WithUserID(user.ID).Warn("failed to record login time")
	}

	s.logger.WithUserID(user.ID).WithField("role", user.Role).Info("session issued")
	return &AuthResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		IsNewUser:    isNew,
	}, nil
}

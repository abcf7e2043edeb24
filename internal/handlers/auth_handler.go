package handlers

import (
	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SendOTP sends a login code to the given phone number.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req services.SendOTPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.authService.SendPhoneOTP(c.Request.Context(), &req); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Code sent", nil)
}

// VerifyOTP exchanges a phone code for a token pair, registering the
// account on first login.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req services.VerifyOTPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.authService.VerifyPhoneOTP(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Logged in", resp)
}

func (h *AuthHandler) SendEmailOTP(c *gin.Context) {
	var req services.EmailOTPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.authService.SendEmailOTP(c.Request.Context(), &req); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Code sent", nil)
}

func (h *AuthHandler) VerifyEmailOTP(c *gin.Context) {
	var req services.VerifyEmailOTPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.authService.VerifyEmailOTP(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Logged in", resp)
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req services.GoogleLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.authService.GoogleLogin(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Logged in", resp)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return
	}

	pair, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.UnauthorizedResponse(c)
		return
	}
	utils.SuccessResponse(c, "Token refreshed", pair)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Logged out", nil)
}

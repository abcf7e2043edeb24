package handlers

import (
	"pathgo/internal/services"
	"pathgo/internal/utils"

	"github.com/gin-gonic/gin"
)

const maxPhotoUploadBytes = 5 << 20

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Profile retrieved", user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.UpdateProfileInput
	if !bindAndValidate(c, &input) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Profile updated", user)
}

// UploadPhoto accepts a multipart "photo" file, resizes it and stores it.
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		utils.BadRequestResponse(c, "A photo file is required")
		return
	}
	if fileHeader.Size > maxPhotoUploadBytes {
		utils.BadRequestResponse(c, "Photo must be under 5MB")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Could not read uploaded file")
		return
	}
	defer file.Close()

	url, err := h.userService.UploadProfilePhoto(c.Request.Context(), userID, file, fileHeader.Filename)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Photo uploaded", gin.H{"profile_photo": url})
}

func (h *UserHandler) RegisterDevice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.DeviceTokenInput
	if !bindAndValidate(c, &input) {
		return
	}

	if err := h.userService.RegisterDevice(c.Request.Context(), userID, &input); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Device registered", nil)
}

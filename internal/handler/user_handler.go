package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"housemarket/internal/auth"
	"housemarket/internal/errors"
	"housemarket/internal/service"
)

// UserHandler serves profile endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// ProfileImageResponse carries the new profile image URL.
type ProfileImageResponse struct {
	Message      string `json:"message"`
	ProfileImage string `json:"profileImage"`
}

// MyProfile godoc
// @Summary Caller's profile and listings
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Profile
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/profile [get]
func (h *UserHandler) MyProfile(c echo.Context) error {
	profile, err := h.svc.Profile(c.Request().Context(), auth.CallerID(c))
	if err != nil {
		return errors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UserListings godoc
// @Summary Public profile and listings of a user
// @Tags users
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} model.Profile
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{userId}/houses [get]
func (h *UserHandler) UserListings(c echo.Context) error {
	profile, err := h.svc.Profile(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return errors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UploadProfileImage godoc
// @Summary Replace the caller's profile image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Profile image"
// @Success 200 {object} ProfileImageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/upload-profile-image [post]
func (h *UserHandler) UploadProfileImage(c echo.Context) error {
	files, err := uploads(c, "image")
	if err != nil {
		return errors.ToHTTP(err)
	}
	if len(files) == 0 {
		return errors.ToHTTP(errors.Validation("no image uploaded", "image"))
	}

	url, err := h.svc.UploadProfileImage(c.Request().Context(), auth.CallerID(c), files[0])
	if err != nil {
		return errors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, ProfileImageResponse{Message: "profile image updated", ProfileImage: url})
}

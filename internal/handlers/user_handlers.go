package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"arogya_api_echo/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// SyncUser handles POST /api/users/sync. Upserts the caller's user row from
// their verified Firebase identity; payment orders require this row to exist.
func (h *UserHandler) SyncUser(c echo.Context) error {
	var req SyncUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	firebaseUID := getStringFromContext(c, "firebaseUID")
	if firebaseUID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	email := getStringFromContext(c, "userEmail")

	ctx := c.Request().Context()

	var user models.User
	err := h.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			FirebaseUID: firebaseUID,
			Name:        req.Name,
			Phone:       req.Phone,
			Email:       email,
			UserType:    models.UserTypePatient,
		}
		if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
		}
		return c.JSON(http.StatusCreated, user)
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch user")
	}

	user.Name = req.Name
	user.Phone = req.Phone
	if email != "" {
		user.Email = email
	}
	if err := h.db.WithContext(ctx).Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user")
	}
	return c.JSON(http.StatusOK, user)
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(c echo.Context) error {
	userID := getUintFromContext(c, "userID")
	if userID == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "user not registered")
	}

	var user models.User
	if err := h.db.WithContext(c.Request().Context()).First(&user, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not registered")
	}
	return c.JSON(http.StatusOK, user)
}

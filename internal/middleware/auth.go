package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"arogya_api_echo/internal/models"
)

// RequireAuth verifies the Firebase ID token from the Authorization header
// and loads the matching user row into the request context. The user row may
// not exist yet (first login before /api/users/sync); handlers that need one
// surface that as their own error.
func RequireAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "authentication is not configured")
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			decoded, err := authClient.VerifyIDToken(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set("firebaseUID", decoded.UID)
			if email, ok := decoded.Claims["email"].(string); ok {
				c.Set("userEmail", email)
			}
			if name, ok := decoded.Claims["name"].(string); ok {
				c.Set("userName", name)
			}

			// Resolve the local user row if it exists
			if db != nil {
				var user models.User
				if err := db.Where("firebase_uid = ?", decoded.UID).First(&user).Error; err == nil {
					c.Set("userID", user.ID)
				}
			}

			return next(c)
		}
	}
}

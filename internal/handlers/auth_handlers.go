package handlers

import (
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
)

const sessionExpiry = 5 * 24 * time.Hour

// AuthHandler exchanges Firebase ID tokens for session cookies and exposes
// the authenticated member's profile.
type AuthHandler struct {
	authClient *auth.Client
	db         *gorm.DB
}

func NewAuthHandler(authClient *auth.Client, db *gorm.DB) *AuthHandler {
	return &AuthHandler{authClient: authClient, db: db}
}

// HandleLogin verifies the ID token from the Authorization header and issues
// a session cookie. The account must already exist as an association member.
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.authClient == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "authentication is not configured")
	}

	authHeader := c.Request().Header.Get("Authorization")
	idToken := strings.TrimPrefix(authHeader, "Bearer ")
	if idToken == "" || idToken == authHeader {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	reqCtx := c.Request().Context()
	decoded, err := h.authClient.VerifyIDToken(reqCtx, idToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid ID token")
	}

	email, _ := decoded.Claims["email"].(string)
	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "account is not registered with the association")
	}

	cookieValue, err := h.authClient.SessionCookie(reqCtx, idToken, sessionExpiry)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "failed to create session")
	}

	c.SetCookie(&http.Cookie{
		Name:     "session",
		Value:    cookieValue,
		MaxAge:   int(sessionExpiry.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"user":   user,
	})
}

// HandleLogout clears the session cookie.
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "session",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleMe returns the authenticated member with their pharmacies.
func (h *AuthHandler) HandleMe(c echo.Context) error {
	var user models.User
	err := h.db.WithContext(c.Request().Context()).
		Preload("Pharmacies").
		First(&user, actorID(c)).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown account")
	}
	return c.JSON(http.StatusOK, user)
}

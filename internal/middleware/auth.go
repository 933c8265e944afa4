package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
)

// Context keys populated by RequireAuth for downstream handlers.
const (
	CtxUserIDKey    = "userId"
	CtxUserRoleKey  = "userRole"
	CtxUserEmailKey = "userEmail"
)

// RequireAuth verifies the caller's identity and resolves it to an
// association member. API clients send a Bearer ID token; the dashboard uses
// the session cookie issued at login. The resolved user id and role are the
// actor identity every ledger operation records.
func RequireAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "authentication is not configured")
			}

			token, err := verifyRequest(c, authClient)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing credentials")
			}

			email, _ := token.Claims["email"].(string)
			if email == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token carries no email claim")
			}

			var user models.User
			if err := db.Where("email = ?", email).First(&user).Error; err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "account is not registered with the association")
			}

			c.Set(CtxUserIDKey, user.ID)
			c.Set(CtxUserRoleKey, user.Role)
			c.Set(CtxUserEmailKey, user.Email)

			return next(c)
		}
	}
}

// RequireAdmin gates administrative operations: due type management, penalty
// additions, payment review, bulk assignment and the penalty evaluator.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(models.UserRole)
			if !ok || role != models.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "administrator role required")
			}
			return next(c)
		}
	}
}

// verifyRequest checks the Authorization header first, then falls back to
// the session cookie.
func verifyRequest(c echo.Context, authClient *auth.Client) (*auth.Token, error) {
	reqCtx := c.Request().Context()

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return nil, echo.ErrUnauthorized
		}
		return authClient.VerifyIDToken(reqCtx, tokenString)
	}

	cookie, err := c.Cookie("session")
	if err != nil || cookie.Value == "" {
		return nil, echo.ErrUnauthorized
	}
	return authClient.VerifySessionCookie(reqCtx, cookie.Value)
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-booking/app/dto/http"
	"github.com/vibast-solutions/ms-go-booking/app/entity"
	"github.com/vibast-solutions/ms-go-booking/app/service"
	"github.com/vibast-solutions/ms-go-booking/app/token"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*entity.Account, error)
}

type AuthMiddleware struct {
	accounts authenticator
}

func NewAuthMiddleware(accounts authenticator) *AuthMiddleware {
	return &AuthMiddleware{accounts: accounts}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// IsAuthError reports whether err means the presented credentials were rejected.
func IsAuthError(err error) bool {
	return errors.Is(err, token.ErrExpired) ||
		errors.Is(err, token.ErrInvalid) ||
		errors.Is(err, service.ErrAccountNotFound)
}

// Authenticate resolves the bearer token to the calling account. Requests
// without an Authorization header continue anonymously.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return next(c)
		}

		tokenString, ok := BearerToken(authHeader)
		if !ok {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid authorization header format"})
		}

		req := c.Request()
		caller, err := m.accounts.Authenticate(req.Context(), tokenString)
		if err != nil {
			if IsAuthError(err) {
				logrus.Debug("Invalid or expired access token")
				return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid or expired token"})
			}
			logrus.WithError(err).Error("Access token validation failed")
			return c.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
		}

		c.Set(ContextKeyCaller, caller)
		c.SetRequest(req.WithContext(WithCaller(req.Context(), caller)))
		return next(c)
	}
}

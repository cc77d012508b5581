package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Eursukkul/studio-booking/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// Claims carried by bearer tokens. Tokens are issued by the identity service;
// this service only verifies them.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	log    *slog.Logger
}

func NewAuthenticator(secret string, log *slog.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), log: logger.Component(log, "auth")}
}

// Middleware verifies the bearer token and stores the resulting Principal on
// the echo context.
func (a *Authenticator) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "authorization token missing")
		}

		p, err := a.Parse(token)
		if err != nil {
			a.log.Warn("rejected token", "path", c.Path(), "err", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(principalKey, p)
		return next(c)
	}
}

func (a *Authenticator) Parse(tokenString string) (Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return Principal{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Principal{}, errors.New("invalid token claims")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid subject: %w", err)
	}

	return NewPrincipal(userID, ParseRole(claims.Role)), nil
}

// FromContext returns the principal set by Middleware.
func FromContext(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

// WithPrincipal stores p on the context, for handler tests.
func WithPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
}

// Require rejects principals lacking capability c.
func Require(c Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, ok := FromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !p.Can(c) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(ctx)
		}
	}
}

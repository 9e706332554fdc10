package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/zerobertocosta/Karibu/internal/config"
	"github.com/zerobertocosta/Karibu/internal/presentation/http/response"
	"github.com/zerobertocosta/Karibu/internal/tenant"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

// Claims carries the tenant identity minted by the token issuer.
type Claims struct {
	EstablishmentID int64  `json:"establishment_id"`
	Role            string `json:"role"`
	jwt.RegisteredClaims
}

// TenantAuth validates the bearer token and stores the resolved tenant
// context on the request. Every authenticated route runs behind it.
func TenantAuth(cfg config.Config) echo.MiddlewareFunc {
	secret := []byte(cfg.Auth.JWTSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				// websocket clients cannot set headers from browsers
				token = c.QueryParam("token")
			}
			if token == "" {
				return response.New(c).WithError(errorbank.Unauthorized("missing bearer token")).Build()
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !parsed.Valid {
				return response.New(c).WithError(errorbank.Unauthorized("invalid token", errorbank.WithCause(err))).Build()
			}

			actor := tenant.Context{
				EstablishmentID: claims.EstablishmentID,
				Role:            tenant.Role(claims.Role),
			}
			if actor.EstablishmentID == 0 || !actor.Role.Valid() {
				return response.New(c).WithError(errorbank.Unauthorized("token lacks tenant identity")).Build()
			}

			ctx := tenant.NewContext(c.Request().Context(), actor)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// Actor extracts the tenant context placed on the request by TenantAuth.
func Actor(c echo.Context) (tenant.Context, error) {
	actor, ok := tenant.FromContext(c.Request().Context())
	if !ok {
		return tenant.Context{}, errorbank.Unauthorized("missing tenant context")
	}
	return actor, nil
}

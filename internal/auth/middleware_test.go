package auth_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(auth.JWTMiddleware(secret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, name := auth.CurrentUser(c)
		return c.JSON(fiber.Map{"id": id, "name": name})
	})
	app.Get("/admin", auth.RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func request(t *testing.T, app *fiber.App, path, header string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if header != "" {
		req.Header.Set(fiber.HeaderAuthorization, header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func Test_JWTMiddleware(t *testing.T) {
	app := newApp()
	operator := &models.User{ID: 7, Name: "Op", Email: "op@example.com", Role: models.RoleOperator}

	valid, err := auth.GenerateToken(secret, operator)
	require.NoError(t, err)

	foreign, err := auth.GenerateToken("another-secret-another-secret-xx", operator)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.JWTCustomClaims{
		UserID: 7,
		Role:   models.RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	sign := func(claims *auth.JWTCustomClaims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	inAnHour := jwt.NewNumericDate(time.Now().Add(time.Hour))

	unknownRole := sign(&auth.JWTCustomClaims{UserID: 7, Role: "superuser", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: inAnHour}})
	noExpiry := sign(&auth.JWTCustomClaims{UserID: 7, Role: models.RoleOperator})

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &auth.JWTCustomClaims{
		UserID:           7,
		Role:             models.RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: inAnHour},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + valid, want: fiber.StatusOK},
		{name: "lowercase scheme", header: "bearer " + valid, want: fiber.StatusOK},
		{name: "missing", header: "", want: fiber.StatusUnauthorized},
		{name: "no scheme", header: valid, want: fiber.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, want: fiber.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, want: fiber.StatusUnauthorized},
		{name: "unknown role", header: "Bearer " + unknownRole, want: fiber.StatusUnauthorized},
		{name: "no expiry", header: "Bearer " + noExpiry, want: fiber.StatusUnauthorized},
		{name: "other algorithm", header: "Bearer " + hs512, want: fiber.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", want: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, request(t, app, "/whoami", tt.header))
		})
	}
}

func Test_RequireRole(t *testing.T) {
	app := newApp()

	operatorToken, err := auth.GenerateToken(secret, &models.User{ID: 1, Role: models.RoleOperator})
	require.NoError(t, err)
	adminToken, err := auth.GenerateToken(secret, &models.User{ID: 2, Role: models.RoleAdmin})
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, request(t, app, "/admin", "Bearer "+operatorToken))
	assert.Equal(t, fiber.StatusNoContent, request(t, app, "/admin", "Bearer "+adminToken))
}

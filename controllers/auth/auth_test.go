package auth_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"lms/config"
	"lms/routers/authRoutes"
	"lms/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Token string `json:"token"`
		User  struct {
			ID    uint   `json:"ID"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Email string `json:"email"`
	} `json:"data"`
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: "test-secret", JWTTTLHours: 1, SaltRound: bcrypt.MinCost}
	testutil.UseGlobalDB(t, testutil.DB(t))
	app := fiber.New()
	authRoutes.SetupAuthRoutes(app)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body, token string) (int, authResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()
	var out authResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func TestRegisterLoginMe(t *testing.T) {
	app := newApp(t)

	status, reg := call(t, app, "POST", "/auth/register", `{"name":"Ada Lovelace","email":"Ada@Example.com","password":"analytical"}`, "")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "ada@example.com", reg.Data.User.Email)
	assert.Equal(t, "LEARNER", reg.Data.User.Role)
	assert.NotEmpty(t, reg.Data.Token)

	status, _ = call(t, app, "POST", "/auth/register", `{"name":"Ada","email":"ada@example.com","password":"analytical"}`, "")
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = call(t, app, "POST", "/auth/login", `{"email":"ada@example.com","password":"wrong-password"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, login := call(t, app, "POST", "/auth/login", `{"email":"ada@example.com","password":"analytical"}`, "")
	require.Equal(t, fiber.StatusOK, status)

	status, me := call(t, app, "GET", "/auth/me", "", login.Data.Token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ada@example.com", me.Data.Email)
}

func TestRegister_Validation(t *testing.T) {
	app := newApp(t)

	status, _ := call(t, app, "POST", "/auth/register", `{"name":"A","email":"not-an-email","password":"short"}`, "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

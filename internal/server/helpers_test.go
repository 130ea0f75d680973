package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"atelier/internal/config"
	"atelier/internal/models"
	"atelier/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	app    *fiber.App
	server *Server
	db     *gorm.DB
	redis  *miniredis.Miniredis
}

func newTestEnv(t *testing.T, flags string) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	mr, rdb := testutil.NewRedis(t)

	cfg := &config.Config{
		Port:                     "0",
		Env:                      "test",
		JWTSecret:                "test-secret-key-12345678901234567890123456789012",
		JWTTTLHours:              1,
		AllowedOrigins:           "http://localhost:5173",
		FeatureFlags:             flags,
		CommentRateWindowSeconds: 30,
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testEnv{app: srv.NewApp(), server: srv, db: db, redis: mr}
}

// request sends a JSON request and decodes the JSON response into out when non-nil.
func (e *testEnv) request(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

// signIn creates an account of role and returns a session token for it.
func (e *testEnv) signIn(t *testing.T, role models.Role, name string) (*models.Account, string) {
	t.Helper()
	acc := testutil.CreateAccount(t, e.db, role, name)
	return acc, e.token(t, acc.Email, testutil.DefaultPassword)
}

func (e *testEnv) token(t *testing.T, email, password string) string {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	status := e.request(t, http.MethodPost, "/api/auth/signin", "", fiber.Map{"email": email, "password": password}, &out)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func assertErrorCode(t *testing.T, body models.ErrorResponse, code string) {
	t.Helper()
	assert.Equal(t, code, body.Code, body.Error)
}

func httpRequest(method, path, authHeader string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

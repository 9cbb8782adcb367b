package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authmw "gas-market/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *Service) {
	svc, tokens := setupService(t)
	app := fiber.New()
	app.Use(authmw.New(authmw.Config{
		Tokens: tokens,
		Skip:   func(c *fiber.Ctx) bool { return c.Path() == LoginPath },
	}))
	NewHandler(svc).RegisterRoutes(app)
	return app, svc
}

func request(method, target, token, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func login(t *testing.T, app *fiber.App, username, password string) (*http.Response, map[string]any) {
	t.Helper()
	body := fmt.Sprintf(`{"username": %q, "password": %q}`, username, password)
	resp, err := app.Test(request("POST", "/auth/login", "", body), -1)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHandleLogin(t *testing.T) {
	app, svc := setupTestApp(t)
	_, err := svc.EnsureAdmin(t.Context(), "admin", "admin123", "")
	require.NoError(t, err)

	resp, body := login(t, app, "admin", "admin123")
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, float64(3600), body["expires_in"])
	assert.NotEmpty(t, body["access_token"])

	resp, _ = login(t, app, "admin", "wrong")
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
}

func TestHandleMeAndRefresh(t *testing.T) {
	app, svc := setupTestApp(t)
	_, err := svc.EnsureAdmin(t.Context(), "admin", "admin123", "")
	require.NoError(t, err)
	_, body := login(t, app, "admin", "admin123")
	token := body["access_token"].(string)

	resp, err := app.Test(request("GET", "/auth/me", token, ""))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	var me map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "admin", me["USERNAME"])
	assert.NotContains(t, me, "PASSWORD_HASH")

	resp, err = app.Test(request("POST", "/auth/refresh", token, ""))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(request("GET", "/auth/me", "", ""))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHandleUsersCRUD(t *testing.T) {
	app, svc := setupTestApp(t)
	_, err := svc.EnsureAdmin(t.Context(), "admin", "admin123", "")
	require.NoError(t, err)
	_, body := login(t, app, "admin", "admin123")
	token := body["access_token"].(string)

	resp, err := app.Test(request("POST", "/auth/users", token, `{"username": "maria", "password": "secret1", "email": "maria@example.com"}`), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)
	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	id := int(created["ID"].(float64))
	assert.Equal(t, true, created["IS_ACTIVE"])

	resp, err = app.Test(request("POST", "/auth/users", token, `{"username": "maria", "password": "secret1"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)

	resp, err = app.Test(request("POST", "/auth/users", token, `{"username": "x", "password": "secret1"}`))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = app.Test(request("GET", "/auth/users?limit=10", token, ""))
	require.NoError(t, err)
	var users []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	assert.Len(t, users, 2)

	resp, err = app.Test(request("GET", "/auth/users?limit=5000", token, ""))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	path := fmt.Sprintf("/auth/users/%d", id)
	resp, err = app.Test(request("PUT", path, token, `{"is_active": false}`))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, _ = login(t, app, "maria", "secret1")
	assert.Equal(t, 401, resp.StatusCode)

	resp, err = app.Test(request("GET", path, token, ""))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(request("DELETE", path, token, ""))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(request("GET", path, token, ""))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(request("GET", "/auth/users/abc", token, ""))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

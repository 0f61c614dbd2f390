package server

import (
	"net/http/httptest"
	"testing"

	"warden/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUsersHandler_Search(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", true)
	createTestUser(t, s, "alice", false)
	createTestUser(t, s, "alicia", false)
	createTestUser(t, s, "bob", false)
	app := newTestApp(s, admin.ID, admin.Username)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users?search=alic", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page struct {
		Data       []models.User `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	decodeBody(t, resp, &page)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(2), page.Pagination.Total)
}

func TestGetUserHandler(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", true)
	target := createTestUser(t, s, "alice", false)
	app := newTestApp(s, admin.ID, admin.Username)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.User
	decodeBody(t, resp, &user)
	assert.Equal(t, target.ID, user.ID)
	assert.Equal(t, "alice", user.Username)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/users/999", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/users/not-a-number", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetBanHistoryHandler(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", true)
	target := createTestUser(t, s, "offender", false)
	app := newTestApp(s, admin.ID, admin.Username)

	resp, err := app.Test(jsonRequest("POST", "/api/bans", map[string]interface{}{
		"user_id":  target.ID,
		"ban_type": "PERMANENT",
		"reason":   "fraud",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/users/2/unban", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/bans", map[string]interface{}{
		"user_id":        target.ID,
		"ban_type":       "TEMPORARY",
		"duration_hours": 48,
		"reason":         "repeat offense",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/users/2/bans", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []models.Ban `json:"data"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Data, 2)

	// History of an unknown user is a 404, not an empty list.
	resp, err = app.Test(httptest.NewRequest("GET", "/api/users/999/bans", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

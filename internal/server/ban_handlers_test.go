package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"warden/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestCreateBanHandler(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", true)
	target := createTestUser(t, s, "offender", false)
	app := newTestApp(s, admin.ID, admin.Username)

	resp, err := app.Test(jsonRequest("POST", "/api/bans", map[string]interface{}{
		"user_id":        target.ID,
		"ban_type":       "TEMPORARY",
		"duration_hours": 24,
		"reason":         "spam",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var ban models.Ban
	decodeBody(t, resp, &ban)
	assert.Equal(t, models.BanStatusActive, ban.Status)
	assert.Equal(t, target.ID, ban.UserID)
	assert.Equal(t, "offender", ban.Username)
	assert.Equal(t, "admin", ban.BannedBy)
	require.NotNil(t, ban.ExpiresAt)

	// A second restriction for the same user is rejected.
	resp, err = app.Test(jsonRequest("POST", "/api/bans", map[string]interface{}{
		"user_id":  target.ID,
		"ban_type": "PERMANENT",
		"reason":   "spam again",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var errResp models.ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, models.CodeAlreadyBanned, errResp.Code)
}

func TestCreateBanHandler_Validation(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", true)
	target := createTestUser(t, s, "offender", false)
	app := newTestApp(s, admin.ID, admin.Username)

	resp, err := app.Test(jsonRequest("POST", "/api/bans", map[string]interface{}{
		"user_id":  target.ID,
		"ban_type": "TEMPORARY",
		// no duration, no reason
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errResp models.ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, models.CodeValidation, errResp.Code)
}

func TestUnbanUserHandler(t *testing.T) {
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

	resp, err = app.Test(jsonRequest("POST", "/api/users/2/unban", map[string]interface{}{
		"reason": "verified identity",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var ban models.Ban
	decodeBody(t, resp, &ban)
	assert.Equal(t, models.BanStatusManuallyRemoved, ban.Status)
	assert.Equal(t, "admin", ban.UnbannedBy)
	assert.Equal(t, "verified identity", ban.UnbanReason)
	require.NotNil(t, ban.UnbannedAt)

	var stored models.Ban
	require.NoError(t, s.db.First(&stored, "id = ?", ban.ID).Error)
	assert.Equal(t, models.BanStatusManuallyRemoved, stored.Status)
}

func TestUnbanUserHandler_NoActiveBan(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", true)
	createTestUser(t, s, "clean", false)
	app := newTestApp(s, admin.ID, admin.Username)

	// No body at all is accepted for unban requests.
	req := httptest.NewRequest("POST", "/api/users/2/unban", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var errResp models.ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, models.CodeNoActiveBan, errResp.Code)
}

func TestAppealFlowHandlers(t *testing.T) {
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
	var ban models.Ban
	decodeBody(t, resp, &ban)

	resp, err = app.Test(jsonRequest("POST", "/api/bans/"+ban.ID+"/appeal", map[string]interface{}{
		"reason": "account was compromised",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var appealed models.Ban
	decodeBody(t, resp, &appealed)
	assert.Equal(t, models.BanStatusAppealed, appealed.Status)
	assert.Equal(t, "account was compromised", appealed.AppealReason)

	// Denial reinstates the ban.
	resp, err = app.Test(jsonRequest("POST", "/api/bans/"+ban.ID+"/review-appeal", map[string]interface{}{
		"decision": "DENY",
		"notes":    "no supporting evidence",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var denied models.Ban
	decodeBody(t, resp, &denied)
	assert.Equal(t, models.BanStatusActive, denied.Status)
	assert.Equal(t, models.AppealDecisionDeny, denied.AppealDecision)
	assert.Equal(t, "admin", denied.AppealReviewedBy)

	// A second appeal can still be granted.
	resp, err = app.Test(jsonRequest("POST", "/api/bans/"+ban.ID+"/appeal", map[string]interface{}{
		"reason": "new evidence available",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/bans/"+ban.ID+"/review-appeal", map[string]interface{}{
		"decision": "GRANT",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var granted models.Ban
	decodeBody(t, resp, &granted)
	assert.Equal(t, models.BanStatusManuallyRemoved, granted.Status)
	assert.Equal(t, "admin", granted.UnbannedBy)
}

func TestReviewAppealHandler_NotAppealed(t *testing.T) {
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
	var ban models.Ban
	decodeBody(t, resp, &ban)

	resp, err = app.Test(jsonRequest("POST", "/api/bans/"+ban.ID+"/review-appeal", map[string]interface{}{
		"decision": "GRANT",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var errResp models.ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, models.CodeInvalidState, errResp.Code)
}

func TestGetBansHandler_Pagination(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", true)
	app := newTestApp(s, admin.ID, admin.Username)

	for i := 0; i < 3; i++ {
		user := createTestUser(t, s, "user"+string(rune('a'+i)), false)
		resp, err := app.Test(jsonRequest("POST", "/api/bans", map[string]interface{}{
			"user_id":  user.ID,
			"ban_type": "PERMANENT",
			"reason":   "spam",
		}))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/bans?limit=2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page struct {
		Data       []models.Ban `json:"data"`
		Pagination struct {
			Total  int64 `json:"total"`
			Limit  int   `json:"limit"`
			Offset int   `json:"offset"`
		} `json:"pagination"`
	}
	decodeBody(t, resp, &page)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Limit)

	// Status filtering excludes everything while all bans are active.
	resp, err = app.Test(httptest.NewRequest("GET", "/api/bans?status=EXPIRED", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &page)
	assert.Empty(t, page.Data)

	// Unknown status values are rejected rather than silently ignored.
	resp, err = app.Test(httptest.NewRequest("GET", "/api/bans?status=FROZEN", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetBanStatusHandler(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", true)
	target := createTestUser(t, s, "offender", false)
	app := newTestApp(s, admin.ID, admin.Username)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/2/ban-status", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var status struct {
		Banned bool        `json:"banned"`
		Ban    *models.Ban `json:"ban"`
	}
	decodeBody(t, resp, &status)
	assert.False(t, status.Banned)
	assert.Nil(t, status.Ban)

	resp, err = app.Test(jsonRequest("POST", "/api/bans", map[string]interface{}{
		"user_id":  target.ID,
		"ban_type": "PERMANENT",
		"reason":   "fraud",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/users/2/ban-status", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &status)
	assert.True(t, status.Banned)
	require.NotNil(t, status.Ban)
	assert.Equal(t, models.BanStatusActive, status.Ban.Status)
}

func TestBulkBanHandler_PartialFailure(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", true)
	first := createTestUser(t, s, "first", false)
	second := createTestUser(t, s, "second", false)
	app := newTestApp(s, admin.ID, admin.Username)

	// Pre-ban the second target so the bulk call hits a conflict.
	resp, err := app.Test(jsonRequest("POST", "/api/bans", map[string]interface{}{
		"user_id":  second.ID,
		"ban_type": "PERMANENT",
		"reason":   "fraud",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/bans/bulk", map[string]interface{}{
		"user_ids":       []uint{first.ID, second.ID, 999},
		"ban_type":       "TEMPORARY",
		"duration_hours": 12,
		"reason":         "coordinated spam",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Succeeded []models.Ban `json:"succeeded"`
		Failed    []struct {
			UserID uint   `json:"user_id"`
			Code   string `json:"code"`
		} `json:"failed"`
	}
	decodeBody(t, resp, &result)
	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, first.ID, result.Succeeded[0].UserID)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, models.CodeAlreadyBanned, result.Failed[0].Code)
	assert.Equal(t, models.CodeNotFound, result.Failed[1].Code)
}

func TestUpdateExpiredBansHandler(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", true)
	target := createTestUser(t, s, "offender", false)
	app := newTestApp(s, admin.ID, admin.Username)

	past := time.Now().UTC().Add(-2 * time.Hour)
	overdue := &models.Ban{
		ID:            uuid.NewString(),
		UserID:        target.ID,
		Username:      target.Username,
		BanType:       models.BanTypeTemporary,
		Status:        models.BanStatusActive,
		DurationHours: 1,
		Reason:        "spam",
		BannedBy:      "admin",
		CreatedAt:     past.Add(-time.Hour),
		ExpiresAt:     &past,
	}
	require.NoError(t, s.db.Create(overdue).Error)

	resp, err := app.Test(jsonRequest("POST", "/api/bans/update-expired", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Expired int `json:"expired"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.Expired)

	var stored models.Ban
	require.NoError(t, s.db.First(&stored, "id = ?", overdue.ID).Error)
	assert.Equal(t, models.BanStatusExpired, stored.Status)
}

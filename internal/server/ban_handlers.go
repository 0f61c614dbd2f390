package server

import (
	"warden/internal/models"
	"warden/internal/repository"
	"warden/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateBan handles POST /api/bans
func (s *Server) CreateBan(c *fiber.Ctx) error {
	var in service.CreateBanInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	in.BannedBy = s.actor(c)

	ban, err := s.banService.CreateBan(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ban)
}

// GetBans handles GET /api/bans with optional status, ban_type, user_id,
// username and banned_by filters.
func (s *Server) GetBans(c *fiber.Ctx) error {
	filter := repository.BanFilter{
		UserID:   uint(c.QueryInt("user_id", 0)),
		Username: c.Query("username"),
		Status:   models.BanStatus(c.Query("status")),
		BanType:  models.BanType(c.Query("ban_type")),
		BannedBy: c.Query("banned_by"),
	}
	p := parsePagination(c, 20)

	bans, total, err := s.banService.ListBans(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(pageResponse(bans, total, p))
}

// GetBan handles GET /api/bans/:id
func (s *Server) GetBan(c *fiber.Ctx) error {
	ban, err := s.banService.GetBan(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(ban)
}

// GetBanStatistics handles GET /api/bans/statistics
func (s *Server) GetBanStatistics(c *fiber.Ctx) error {
	stats, err := s.banService.Statistics(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(stats)
}

// GetBanHistory handles GET /api/users/:id/bans
func (s *Server) GetBanHistory(c *fiber.Ctx) error {
	userID, err := s.parseUserID(c)
	if err != nil {
		return nil
	}

	bans, err := s.banService.GetBanHistory(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"data": bans})
}

// GetBanStatus handles GET /api/users/:id/ban-status
func (s *Server) GetBanStatus(c *fiber.Ctx) error {
	userID, err := s.parseUserID(c)
	if err != nil {
		return nil
	}

	ban, err := s.banService.GetBanStatus(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"banned": ban != nil,
		"ban":    ban,
	})
}

// UnbanUser handles POST /api/users/:id/unban
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	userID, err := s.parseUserID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ban, err := s.banService.UnbanUser(c.UserContext(), userID, s.actor(c), req.Reason)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(ban)
}

// SubmitAppeal handles POST /api/bans/:id/appeal
func (s *Server) SubmitAppeal(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ban, err := s.appealService.SubmitAppeal(c.UserContext(), c.Params("id"), req.Reason)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(ban)
}

// ReviewAppeal handles POST /api/bans/:id/review-appeal
func (s *Server) ReviewAppeal(c *fiber.Ctx) error {
	var req struct {
		Decision models.AppealDecision `json:"decision"`
		Notes    string                `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ban, err := s.appealService.ReviewAppeal(c.UserContext(), c.Params("id"), req.Decision, s.actor(c), req.Notes)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(ban)
}

// BulkBan handles POST /api/bans/bulk
func (s *Server) BulkBan(c *fiber.Ctx) error {
	var in service.BulkBanInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	in.BannedBy = s.actor(c)

	result, err := s.bulkService.BulkBan(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// BulkUnban handles POST /api/bans/bulk-unban
func (s *Server) BulkUnban(c *fiber.Ctx) error {
	var in service.BulkUnbanInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	in.UnbannedBy = s.actor(c)

	result, err := s.bulkService.BulkUnban(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// UpdateExpiredBans handles POST /api/bans/update-expired. It runs one expiry
// sweep on demand, the same pass the background sweeper runs on its ticker.
func (s *Server) UpdateExpiredBans(c *fiber.Ctx) error {
	expired, err := s.sweeper.SweepOnce(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"expired": expired})
}

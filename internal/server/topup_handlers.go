package server

import (
	"warden/internal/models"
	"warden/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CheckTopupEligibility handles GET /api/topups/eligibility?username=...&phone=...
func (s *Server) CheckTopupEligibility(c *fiber.Ctx) error {
	result, err := s.topupService.CheckEligibility(c.UserContext(), c.Query("username"), c.Query("phone"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// CreateTopup handles POST /api/topups
func (s *Server) CreateTopup(c *fiber.Ctx) error {
	var in service.CreateTopupInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	in.CreatedBy = s.actor(c)

	topup, err := s.topupService.CreateTopup(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(topup)
}

// GetTopups handles GET /api/users/:id/topups
func (s *Server) GetTopups(c *fiber.Ctx) error {
	userID, err := s.parseUserID(c)
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)

	topups, total, err := s.topupService.ListTopups(c.UserContext(), userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(pageResponse(topups, total, p))
}

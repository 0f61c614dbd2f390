package server

import (
	"warden/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users with an optional search query matching
// username or phone substrings.
func (s *Server) GetUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	users, total, err := s.userService.ListUsers(c.UserContext(), c.Query("search"), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(pageResponse(users, total, p))
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	userID, err := s.parseUserID(c)
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

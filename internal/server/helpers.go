package server

import (
	"errors"

	"warden/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// pageResponse packages a paginated list response.
func pageResponse(data interface{}, total int64, p Pagination) fiber.Map {
	return fiber.Map{
		"data": data,
		"pagination": fiber.Map{
			"total":  total,
			"limit":  p.Limit,
			"offset": p.Offset,
		},
	}
}

// parseUserID extracts the :id route parameter as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseUserID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid user ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// actor returns the authenticated admin's username from locals, set by the
// auth middleware. It is the identity stamped onto ban transitions.
func (s *Server) actor(c *fiber.Ctx) string {
	if username, ok := c.Locals("adminUsername").(string); ok && username != "" {
		return username
	}
	return "unknown"
}

package server

import (
	"testing"
	"time"

	"warden/internal/config"
	"warden/internal/database"
	"warden/internal/models"
	"warden/internal/repository"
	"warden/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer builds a Server on an in-memory SQLite database. The
// Prometheus middleware is left nil so repeated test setups do not
// double-register collectors.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	require.NoError(t, database.EnsureBanIndexes(db))

	cfg := &config.Config{
		Port:             "8460",
		JWTSecret:        "test-secret-key-for-handler-tests",
		Env:              "test",
		SweepInterval:    time.Minute,
		TopupWindowHours: 24,
	}

	userRepo := repository.NewUserRepository(db)
	banRepo := repository.NewBanRepository(db)
	topupRepo := repository.NewTopupRepository(db)

	s := &Server{
		config:    cfg,
		db:        db,
		userRepo:  userRepo,
		banRepo:   banRepo,
		topupRepo: topupRepo,
	}
	s.banService = service.NewBanService(banRepo, userRepo, nil)
	s.appealService = service.NewAppealService(banRepo, nil)
	s.bulkService = service.NewBulkService(s.banService)
	s.topupService = service.NewTopupService(topupRepo, userRepo, nil, cfg.TopupWindow())
	s.userService = service.NewUserService(userRepo)
	s.sweeper = service.NewSweeper(banRepo, nil, cfg.SweepInterval)

	return s
}

// newTestApp wires the moderation routes behind a stub auth layer that
// injects the given admin identity into locals.
func newTestApp(s *Server, adminID uint, adminUsername string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", adminID)
		c.Locals("adminUsername", adminUsername)
		return c.Next()
	})

	app.Post("/api/bans", s.CreateBan)
	app.Get("/api/bans", s.GetBans)
	app.Get("/api/bans/statistics", s.GetBanStatistics)
	app.Post("/api/bans/bulk", s.BulkBan)
	app.Post("/api/bans/bulk-unban", s.BulkUnban)
	app.Post("/api/bans/update-expired", s.UpdateExpiredBans)
	app.Post("/api/bans/:id/appeal", s.SubmitAppeal)
	app.Post("/api/bans/:id/review-appeal", s.ReviewAppeal)
	app.Get("/api/bans/:id", s.GetBan)

	app.Get("/api/users", s.GetUsers)
	app.Get("/api/users/:id/bans", s.GetBanHistory)
	app.Get("/api/users/:id/ban-status", s.GetBanStatus)
	app.Post("/api/users/:id/unban", s.UnbanUser)
	app.Get("/api/users/:id/topups", s.GetTopups)
	app.Get("/api/users/:id", s.GetUser)

	app.Get("/api/topups/eligibility", s.CheckTopupEligibility)
	app.Post("/api/topups", s.CreateTopup)

	return app
}

func createTestUser(t *testing.T, s *Server, username string, isAdmin bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Phone:    "138" + username,
		Password: string(hash),
		IsAdmin:  isAdmin,
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

// Package seed provides helpers to create demo data for the moderation
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"warden/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers    int
	NumBans     int
	NumTopups   int
	ShouldClean bool
}

var banReasons = []string{
	"Sending unsolicited bulk messages",
	"Payment fraud on account top-ups",
	"Harassment of other users",
	"Circumventing a previous restriction",
	"Selling account access",
	"Abusive language toward support staff",
	"Automated traffic from this account",
}

// Seeder populates the database with demo moderation data.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes seeded rows. Order matters: bans and topups reference users.
func (s *Seeder) ClearAll() error {
	for _, table := range []string{"bans", "topups", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedUsers creates n regular user accounts plus one admin. All accounts get
// the password "password123".
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	users := make([]*models.User, 0, n+1)
	users = append(users, &models.User{
		Username: "moderator",
		Email:    "moderator@warden.local",
		Password: string(hash),
		IsAdmin:  true,
	})

	for i := 0; i < n; i++ {
		username := fmt.Sprintf("%s%d", gofakeit.Username(), i)
		users = append(users, &models.User{
			Username: username,
			Email:    fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
			Phone:    gofakeit.Phone(),
			Password: string(hash),
			Balance:  int64(s.rng.Intn(5000)),
		})
	}

	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	log.Printf("✓ %d users created (1 admin)", len(users))
	return users, nil
}

// SeedBans creates up to n ban episodes spread over the given users. At most
// one open restriction is created per user; the rest are closed episodes so
// ban histories have depth.
func (s *Seeder) SeedBans(users []*models.User, n int) error {
	if len(users) == 0 || n <= 0 {
		return nil
	}

	bans := make([]*models.Ban, 0, n)
	restricted := make(map[uint]bool)

	for i := 0; i < n; i++ {
		user := users[s.rng.Intn(len(users))]
		if user.IsAdmin {
			continue
		}

		ban := s.buildBan(user, restricted[user.ID])
		if ban.Status == models.BanStatusActive || ban.Status == models.BanStatusAppealed {
			restricted[user.ID] = true
		}
		bans = append(bans, ban)
	}

	if err := s.db.CreateInBatches(&bans, 100).Error; err != nil {
		return fmt.Errorf("create bans: %w", err)
	}
	log.Printf("✓ %d bans created", len(bans))
	return nil
}

func (s *Seeder) buildBan(user *models.User, forceClosed bool) *models.Ban {
	createdAt := time.Now().UTC().Add(-time.Duration(s.rng.Intn(90*24)) * time.Hour)
	ban := &models.Ban{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Reason:    banReasons[s.rng.Intn(len(banReasons))],
		BannedBy:  "moderator",
		CreatedAt: createdAt,
	}

	switch s.rng.Intn(4) {
	case 0:
		ban.BanType = models.BanTypePermanent
	case 1:
		ban.BanType = models.BanTypeWarning
	default:
		ban.BanType = models.BanTypeTemporary
		ban.DurationHours = []int{24, 72, 168}[s.rng.Intn(3)]
	}
	if ban.DurationHours > 0 {
		expires := createdAt.Add(time.Duration(ban.DurationHours) * time.Hour)
		ban.ExpiresAt = &expires
	}

	roll := s.rng.Intn(10)
	switch {
	case !forceClosed && roll < 3 && (ban.ExpiresAt == nil || ban.ExpiresAt.After(time.Now())):
		ban.Status = models.BanStatusActive
	case !forceClosed && roll == 3 && ban.BanType == models.BanTypePermanent:
		ban.Status = models.BanStatusAppealed
		ban.AppealReason = gofakeit.Sentence(8)
	case roll < 6 && ban.ExpiresAt != nil && ban.ExpiresAt.Before(time.Now()):
		ban.Status = models.BanStatusExpired
	default:
		ban.Status = models.BanStatusManuallyRemoved
		ban.UnbannedBy = "moderator"
		ban.UnbanReason = "Resolved after review"
		unbannedAt := createdAt.Add(time.Duration(1+s.rng.Intn(48)) * time.Hour)
		ban.UnbannedAt = &unbannedAt
	}

	return ban
}

// SeedTopups creates up to n top-up records and stamps each user's balance
// and last top-up time to stay consistent with the ledger.
func (s *Seeder) SeedTopups(users []*models.User, n int) error {
	if len(users) == 0 || n <= 0 {
		return nil
	}

	lastByUser := make(map[uint]time.Time)
	topups := make([]*models.Topup, 0, n)

	for i := 0; i < n; i++ {
		user := users[s.rng.Intn(len(users))]
		if user.IsAdmin {
			continue
		}

		createdAt := time.Now().UTC().Add(-time.Duration(s.rng.Intn(60*24)) * time.Hour)
		topups = append(topups, &models.Topup{
			UserID:    user.ID,
			Amount:    int64((1 + s.rng.Intn(10)) * 50),
			CreatedBy: "moderator",
			Notes:     gofakeit.Sentence(4),
			CreatedAt: createdAt,
		})
		if createdAt.After(lastByUser[user.ID]) {
			lastByUser[user.ID] = createdAt
		}
	}

	if err := s.db.CreateInBatches(&topups, 100).Error; err != nil {
		return fmt.Errorf("create topups: %w", err)
	}

	for userID, last := range lastByUser {
		stamp := last
		if err := s.db.Model(&models.User{}).Where("id = ?", userID).
			Update("last_topup_at", &stamp).Error; err != nil {
			return fmt.Errorf("stamp last_topup_at for user %d: %w", userID, err)
		}
	}

	log.Printf("✓ %d topups created", len(topups))
	return nil
}

// Seed populates the database with demo users, bans, and top-ups.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Seeding %d users, %d bans, %d topups...", opts.NumUsers, opts.NumBans, opts.NumTopups)

	s := NewSeeder(db)
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users, err := s.SeedUsers(opts.NumUsers)
	if err != nil {
		return err
	}
	if err := s.SeedBans(users, opts.NumBans); err != nil {
		return err
	}
	return s.SeedTopups(users, opts.NumTopups)
}

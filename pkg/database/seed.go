package database

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	AdminEmail       string
	AdminPassword    string
	AdminUsername    string
	AdminDisplayName string
	CreateTestUsers  bool
	TestUserCount    int
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		AdminEmail:       "admin@livepoll.local",
		AdminPassword:    "Admin@123!",
		AdminUsername:    "admin",
		AdminDisplayName: "System Admin",
		CreateTestUsers:  false,
		TestUserCount:    5,
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	AdminUser *user.User
	TestUsers []*user.User
	Polls     []*poll.Poll
}

// Seed runs the complete database seeding
func Seed(cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}

	result := &SeedResult{}

	log.Println("Starting database seeding...")

	adminUser, err := seedAdminUser(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}
	result.AdminUser = adminUser

	if cfg.CreateTestUsers {
		testUsers, err := seedTestUsers(cfg.TestUserCount)
		if err != nil {
			return nil, fmt.Errorf("failed to seed test users: %w", err)
		}
		result.TestUsers = testUsers

		polls, err := seedPolls(testUsers)
		if err != nil {
			return nil, fmt.Errorf("failed to seed polls: %w", err)
		}
		result.Polls = polls

		if err := seedVotes(polls, testUsers); err != nil {
			return nil, fmt.Errorf("failed to seed votes: %w", err)
		}
	}

	log.Println("Database seeding completed successfully!")
	return result, nil
}

// SeedMinimal runs minimal seeding (admin user only)
func SeedMinimal(cfg *SeedConfig) (*user.User, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}
	return seedAdminUser(cfg)
}

// seedAdminUser creates the admin user if it does not already exist
func seedAdminUser(cfg *SeedConfig) (*user.User, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	var existing user.User
	err := DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Println("Admin user already exists, skipping creation")
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	adminUser := &user.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     cfg.AdminUsername,
		PasswordHash: string(hashedPassword),
		DisplayName:  cfg.AdminDisplayName,
		Role:         user.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := DB.Create(adminUser).Error; err != nil {
		return nil, err
	}
	return adminUser, nil
}

// seedTestUsers creates development users with predictable credentials
func seedTestUsers(count int) ([]*user.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Test@123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*user.User, 0, count)
	for i := 1; i <= count; i++ {
		u := &user.User{
			ID:           uuid.New(),
			Email:        fmt.Sprintf("user%d@livepoll.local", i),
			Username:     fmt.Sprintf("user%d", i),
			PasswordHash: string(hashedPassword),
			DisplayName:  fmt.Sprintf("Test User %d", i),
			Role:         user.RoleUser,
			IsActive:     true,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		var existing user.User
		if err := DB.Where("email = ?", u.Email).First(&existing).Error; err == nil {
			users = append(users, &existing)
			continue
		}
		if err := DB.Create(u).Error; err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// seedPolls creates a couple of sample polls owned by the test users
func seedPolls(users []*user.User) ([]*poll.Poll, error) {
	if len(users) == 0 {
		return nil, nil
	}

	samples := []struct {
		question string
		options  []string
	}{
		{"Where should we hold the next team offsite?", []string{"Lisbon", "Prague", "Tokyo"}},
		{"Which talk slot works best?", []string{"Morning", "After lunch", "Evening"}},
	}

	polls := make([]*poll.Poll, 0, len(samples))
	for i, s := range samples {
		p := &poll.Poll{
			ID:        uuid.New(),
			Question:  s.question,
			Options:   datatypes.JSONSlice[string](s.options),
			CreatorID: users[i%len(users)].ID,
			Completed: false,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		var existing poll.Poll
		if err := DB.Where("question = ?", p.Question).First(&existing).Error; err == nil {
			polls = append(polls, &existing)
			continue
		}
		if err := DB.Create(p).Error; err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
	return polls, nil
}

// seedVotes spreads a few votes across the sample polls
func seedVotes(polls []*poll.Poll, users []*user.User) error {
	for _, p := range polls {
		for i, u := range users {
			if i%2 == 1 {
				continue
			}
			v := &poll.Vote{
				ID:          uuid.New(),
				PollID:      p.ID,
				VoterID:     u.ID,
				OptionIndex: i % len(p.Options),
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}
			if err := DB.Create(v).Error; err != nil {
				// Re-running seed hits the unique index; that is fine.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					continue
				}
				return err
			}
		}
	}
	return nil
}

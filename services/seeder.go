package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tradescreenhq/tradescreen/backend/models"
	"github.com/tradescreenhq/tradescreen/backend/repository"
	"golang.org/x/crypto/bcrypt"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	// Hash default password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Dashboard users for local development
	users := []models.User{
		{
			Email:    "recruiter@example.com",
			Password: string(hashedPassword),
			FullName: "Demo Recruiter",
			Role:     "recruiter",
		},
		{
			Email:    "admin@example.com",
			Password: string(hashedPassword),
			FullName: "Demo Admin",
			Role:     "admin",
		},
	}

	for _, user := range users {
		if err := s.seedUser(ctx, user); err != nil {
			slog.Error("Failed to seed user", "email", user.Email, "error", err)
		}
	}

	// Demo candidates across trade categories
	candidates := []models.Candidate{
		{
			Email:           "j.alvarez@example.com",
			FullName:        "Jorge Alvarez",
			Phone:           "+1-555-0101",
			TradeCategory:   models.TradeConstruction,
			Position:        "Concrete Finisher",
			ScreeningStatus: models.ScreeningInvited,
		},
		{
			Email:           "m.okafor@example.com",
			FullName:        "Martha Okafor",
			Phone:           "+1-555-0102",
			TradeCategory:   models.TradeElectrical,
			Position:        "Journeyman Electrician",
			ScreeningStatus: models.ScreeningInvited,
		},
		{
			Email:           "t.nguyen@example.com",
			FullName:        "Thanh Nguyen",
			Phone:           "+1-555-0103",
			TradeCategory:   models.TradeWelding,
			Position:        "MIG Welder",
			ScreeningStatus: models.ScreeningInvited,
		},
		{
			Email:           "s.kowalski@example.com",
			FullName:        "Stefan Kowalski",
			Phone:           "+1-555-0104",
			TradeCategory:   models.TradeMaintenance,
			Position:        "Facilities Technician",
			ScreeningStatus: models.ScreeningInvited,
		},
	}

	for _, candidate := range candidates {
		if err := s.seedCandidate(ctx, candidate); err != nil {
			slog.Error("Failed to seed candidate", "email", candidate.Email, "error", err)
		}
	}

	slog.Info("Database seeding completed")
	return nil
}

// seedUser seeds a single user (idempotent)
func (s *DatabaseSeeder) seedUser(ctx context.Context, user models.User) error {
	existingUser, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("error checking user %s: %w", user.Email, err)
	}

	if existingUser != nil {
		slog.Info("User already exists, skipping", "email", user.Email)
		return nil
	}

	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	slog.Info("Created user", "email", user.Email)
	return nil
}

// seedCandidate seeds a single candidate (idempotent)
func (s *DatabaseSeeder) seedCandidate(ctx context.Context, candidate models.Candidate) error {
	existing, err := s.repo.GetCandidateByEmail(ctx, candidate.Email)
	if err != nil {
		return fmt.Errorf("error checking candidate %s: %w", candidate.Email, err)
	}

	if existing != nil {
		slog.Info("Candidate already exists, skipping", "email", candidate.Email)
		return nil
	}

	if err := s.repo.CreateCandidate(ctx, &candidate); err != nil {
		return fmt.Errorf("failed to create candidate %s: %w", candidate.Email, err)
	}

	slog.Info("Created candidate", "email", candidate.Email, "trade", candidate.TradeCategory)
	return nil
}

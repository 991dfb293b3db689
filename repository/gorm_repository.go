package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tradescreenhq/tradescreen/backend/models"
	"gorm.io/gorm"
)

// Storage-level sentinel errors. Duplicate errors are produced by translating
// unique-constraint violations, so they hold even when two writers race past
// the application-level existence checks.
var (
	ErrDuplicateAssessment = errors.New("assessment already exists for session")
	ErrDuplicateEmail      = errors.New("candidate email already exists")
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Candidate{},
		&models.ScreeningSession{},
		&models.TranscriptEntry{},
		&models.Assessment{},
		&models.Notification{},
	)
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// Candidate operations
func (r *GORMRepository) CreateCandidate(ctx context.Context, candidate *models.Candidate) error {
	if err := r.db.WithContext(ctx).Create(candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		slog.Error("Failed to create candidate", "error", err)
		return err
	}
	slog.Info("Candidate created", "candidate_id", candidate.ID, "email", candidate.Email, "trade_category", candidate.TradeCategory)
	return nil
}

func (r *GORMRepository) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&candidate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get candidate", "error", err, "candidate_id", id)
		return nil, err
	}
	return &candidate, nil
}

func (r *GORMRepository) GetCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&candidate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get candidate by email", "error", err, "email", email)
		return nil, err
	}
	return &candidate, nil
}

// ListCandidates returns candidates, optionally filtered by screening status.
func (r *GORMRepository) ListCandidates(ctx context.Context, screeningStatus string) ([]models.Candidate, error) {
	var candidates []models.Candidate
	query := r.db.WithContext(ctx)
	if screeningStatus != "" {
		query = query.Where("screening_status = ?", screeningStatus)
	}
	if err := query.Order("created_at DESC").Find(&candidates).Error; err != nil {
		slog.Error("Failed to list candidates", "error", err, "screening_status", screeningStatus)
		return nil, err
	}
	return candidates, nil
}

func (r *GORMRepository) UpdateCandidate(ctx context.Context, candidate *models.Candidate) error {
	if err := r.db.WithContext(ctx).Save(candidate).Error; err != nil {
		slog.Error("Failed to update candidate", "error", err, "candidate_id", candidate.ID)
		return err
	}
	return nil
}

// UpdateCandidateScreeningStatus advances the candidate's screening status and
// stamps the last-contact time.
func (r *GORMRepository) UpdateCandidateScreeningStatus(ctx context.Context, candidateID, status string) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("id = ?", candidateID).
		Updates(map[string]interface{}{"screening_status": status, "last_contact_at": now}).Error; err != nil {
		slog.Error("Failed to update candidate screening status", "error", err, "candidate_id", candidateID, "status", status)
		return err
	}
	slog.Info("Candidate screening status updated", "candidate_id", candidateID, "status", status)
	return nil
}

// FlagCandidate marks a candidate for review. Candidates are never hard
// deleted; flagging preserves the audit trail.
func (r *GORMRepository) FlagCandidate(ctx context.Context, candidateID, reason string) error {
	if err := r.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("id = ?", candidateID).
		Updates(map[string]interface{}{"flagged": true, "flag_reason": reason}).Error; err != nil {
		slog.Error("Failed to flag candidate", "error", err, "candidate_id", candidateID)
		return err
	}
	slog.Info("Candidate flagged", "candidate_id", candidateID, "reason", reason)
	return nil
}

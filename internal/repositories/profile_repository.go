package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pod-service/internal/models"
)

// ProfileRepository loads study profiles.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (models.UserProfile, error)
}

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetProfile returns the stored profile, or an empty one for users who never filled it in.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	var row struct {
		UserID       string         `db:"user_id"`
		Subjects     pq.StringArray `db:"subjects"`
		Pace         string         `db:"pace"`
		Availability pq.StringArray `db:"availability"`
		Goals        pq.StringArray `db:"goals"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT user_id, subjects, pace, availability, goals FROM user_profiles WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{UserID: userID}, nil
	}
	if err != nil {
		return models.UserProfile{}, err
	}
	return models.UserProfile{
		UserID:       row.UserID,
		Subjects:     row.Subjects,
		Pace:         row.Pace,
		Availability: row.Availability,
		Goals:        row.Goals,
	}, nil
}

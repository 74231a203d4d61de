package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
)

type profilesRepo struct {
	q dbtx
}

func (r *profilesRepo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var (
		p                                     domain.Profile
		bio, careerField, expLevel, avatarURL sql.NullString
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT user_id, email, full_name, bio, career_field, experience_level, avatar_url, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Email, &p.FullName, &bio, &careerField, &expLevel, &avatarURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	p.Bio = mapNullStringPtr(bio)
	p.CareerField = mapNullStringPtr(careerField)
	p.ExperienceLevel = mapNullStringPtr(expLevel)
	p.AvatarURL = mapNullStringPtr(avatarURL)
	return p, nil
}

func (r *profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO profiles (user_id, email, full_name, bio, career_field, experience_level, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, strings.ToLower(p.Email), p.FullName,
		mapOptionalString(p.Bio), mapOptionalString(p.CareerField),
		mapOptionalString(p.ExperienceLevel), mapOptionalString(p.AvatarURL),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *profilesRepo) UpdateProfile(ctx context.Context, p domain.Profile) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE profiles
		SET full_name = ?, bio = ?, career_field = ?, experience_level = ?, avatar_url = ?, updated_at = ?
		WHERE user_id = ?`,
		p.FullName,
		mapOptionalString(p.Bio), mapOptionalString(p.CareerField),
		mapOptionalString(p.ExperienceLevel), mapOptionalString(p.AvatarURL),
		time.Now().UTC(), p.UserID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

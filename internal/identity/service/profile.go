package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
)

var ErrProfileNotFound = errors.New("profile not found")

const (
	maxFullNameLength = 128
	maxBioLength      = 1000
	maxFieldLength    = 128
	maxURLLength      = 512
)

// ProfileService reads and updates the user-editable profile rows.
type ProfileService struct {
	Store store.Store
}

// ProfileUpdate carries a partial update. Nil fields are left untouched;
// a pointer to an empty string clears the column.
type ProfileUpdate struct {
	FullName        *string
	Bio             *string
	CareerField     *string
	ExperienceLevel *string
	AvatarURL       *string
}

// GetProfile returns the profile for a user.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	p, err := s.Store.Profiles().GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrProfileNotFound
		}
		return domain.Profile{}, err
	}
	return p, nil
}

// UpdateProfile applies the provided fields to the caller's profile and
// returns the updated row.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (domain.Profile, error) {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}

	if upd.FullName != nil {
		p.FullName = clampString(*upd.FullName, maxFullNameLength)
	}
	applyOptional(&p.Bio, upd.Bio, maxBioLength)
	applyOptional(&p.CareerField, upd.CareerField, maxFieldLength)
	applyOptional(&p.ExperienceLevel, upd.ExperienceLevel, maxFieldLength)
	applyOptional(&p.AvatarURL, upd.AvatarURL, maxURLLength)

	if err := s.Store.Profiles().UpdateProfile(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrProfileNotFound
		}
		return domain.Profile{}, err
	}
	return s.GetProfile(ctx, userID)
}

func clampString(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// applyOptional writes upd into dst when set. Whitespace-only values
// clear the column rather than storing blanks.
func applyOptional(dst **string, upd *string, max int) {
	if upd == nil {
		return
	}
	val := strings.TrimSpace(*upd)
	if val == "" {
		*dst = nil
		return
	}
	val = clampString(val, max)
	*dst = &val
}

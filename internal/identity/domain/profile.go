package domain

import "time"

// Profile is the user-editable counterpart to a User row. One profile per
// user, created in the same transaction as the account.
type Profile struct {
	UserID          string // UUID, same as users.id
	Email           string // denormalized copy of the account email
	FullName        string
	Bio             *string
	CareerField     *string
	ExperienceLevel *string
	AvatarURL       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

package entity

import "time"

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password.
type User struct {
	ID               string
	Email            string
	Password         string
	FullName         string
	AvatarURL        string
	Bio              string
	NativeLanguage   string
	LearningLanguage string
	Location         string
	IsOnboarded      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProfileUpdate is the allow-listed field set applied during onboarding.
// Nothing outside these five fields (plus the onboarding flag) is ever
// written from an onboarding payload.
type ProfileUpdate struct {
	FullName         string
	Bio              string
	NativeLanguage   string
	LearningLanguage string
	Location         string
}

// UserSummary is the profile projection returned by friend and
// recommendation listings.
type UserSummary struct {
	ID               string `json:"id"`
	FullName         string `json:"fullName"`
	AvatarURL        string `json:"avatarUrl"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:               u.ID,
		FullName:         u.FullName,
		AvatarURL:        u.AvatarURL,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
	}
}

package repository

import (
	"context"

	"github.com/peerlingo/peerlingo/internal/domain/entity"
)

// UserRepository defines the store operations for accounts. Implementations
// surface apperr kinds: conflict for a duplicate email, not found for a
// missing id, dependency for store failures.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// OnboardProfile atomically applies the allow-listed profile fields and
	// sets the onboarding flag.
	OnboardProfile(ctx context.Context, id string, p entity.ProfileUpdate) (*entity.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (*entity.User, error)
	// ListFriends resolves the account's friend references to summaries.
	ListFriends(ctx context.Context, id string) ([]entity.UserSummary, error)
	// ListRecommended returns onboarded accounts with no friendship and no
	// request in either direction relative to id, excluding id itself, in
	// stable (creation) order.
	ListRecommended(ctx context.Context, id string) ([]entity.UserSummary, error)
}

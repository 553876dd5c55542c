package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peerlingo/peerlingo/internal/domain/entity"
	"github.com/peerlingo/peerlingo/internal/domain/repository"
	"github.com/peerlingo/peerlingo/pkg/apperr"
)

const userColumns = `id, email, password_hash, full_name, avatar_url, bio,
	native_language, learning_language, location, is_onboarded, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.AvatarURL, &u.Bio,
		&u.NativeLanguage, &u.LearningLanguage, &u.Location, &u.IsOnboarded,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, full_name, avatar_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.FullName, u.AvatarURL)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.Conflict("email already exists")
		}
		return apperr.Dependency("create user failed", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
	if err != nil {
		if missingRow(err) {
			return nil, apperr.NotFound("account not found")
		}
		return nil, apperr.Dependency("get user failed", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("account not found")
		}
		return nil, apperr.Dependency("get user failed", err)
	}
	return u, nil
}

func (r *UserRepository) OnboardProfile(ctx context.Context, id string, p entity.ProfileUpdate) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET full_name = $1, bio = $2, native_language = $3, learning_language = $4,
		    location = $5, is_onboarded = TRUE, updated_at = now()
		WHERE id = $6
		RETURNING `+userColumns+`
	`, p.FullName, p.Bio, p.NativeLanguage, p.LearningLanguage, p.Location, id))
	if err != nil {
		if missingRow(err) {
			return nil, apperr.NotFound("account not found")
		}
		return nil, apperr.Dependency("onboard update failed", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET avatar_url = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns+`
	`, avatarURL, id))
	if err != nil {
		if missingRow(err) {
			return nil, apperr.NotFound("account not found")
		}
		return nil, apperr.Dependency("avatar update failed", err)
	}
	return u, nil
}

func (r *UserRepository) ListFriends(ctx context.Context, id string) ([]entity.UserSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.full_name, u.avatar_url, u.native_language, u.learning_language
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY u.full_name, u.id
	`, id)
	if err != nil {
		return nil, apperr.Dependency("list friends failed", err)
	}
	defer rows.Close()
	return collectSummaries(rows)
}

func (r *UserRepository) ListRecommended(ctx context.Context, id string) ([]entity.UserSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.full_name, u.avatar_url, u.native_language, u.learning_language
		FROM users u
		WHERE u.id <> $1
		  AND u.is_onboarded
		  AND NOT EXISTS (
			SELECT 1 FROM friendships f
			WHERE f.user_id = $1 AND f.friend_id = u.id
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM friend_requests fr
			WHERE (fr.sender_id = $1 AND fr.recipient_id = u.id)
			   OR (fr.sender_id = u.id AND fr.recipient_id = $1)
		  )
		ORDER BY u.created_at, u.id
	`, id)
	if err != nil {
		return nil, apperr.Dependency("list recommended failed", err)
	}
	defer rows.Close()
	return collectSummaries(rows)
}

func collectSummaries(rows pgx.Rows) ([]entity.UserSummary, error) {
	out := make([]entity.UserSummary, 0)
	for rows.Next() {
		var s entity.UserSummary
		if err := rows.Scan(&s.ID, &s.FullName, &s.AvatarURL, &s.NativeLanguage, &s.LearningLanguage); err != nil {
			return nil, apperr.Dependency("scan user summary failed", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency("iterate user summaries failed", err)
	}
	return out, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)

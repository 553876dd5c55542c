package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peerlingo/peerlingo/internal/domain/entity"
	"github.com/peerlingo/peerlingo/internal/domain/repository"
	"github.com/peerlingo/peerlingo/pkg/apperr"
)

type FriendRequestRepository struct {
	pool *pgxpool.Pool
}

func NewFriendRequestRepository(pool *pgxpool.Pool) *FriendRequestRepository {
	return &FriendRequestRepository{pool: pool}
}

func (r *FriendRequestRepository) Create(ctx context.Context, senderID, recipientID string) (*entity.FriendRequest, error) {
	fr := &entity.FriendRequest{SenderID: senderID, RecipientID: recipientID, Status: entity.RequestPending}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO friend_requests (sender_id, recipient_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, senderID, recipientID)

	if err := row.Scan(&fr.ID, &fr.CreatedAt, &fr.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperr.Conflict("a friend request already exists between these accounts")
		}
		return nil, apperr.Dependency("create friend request failed", err)
	}
	return fr, nil
}

func (r *FriendRequestRepository) GetByID(ctx context.Context, id string) (*entity.FriendRequest, error) {
	fr := &entity.FriendRequest{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, sender_id, recipient_id, status, created_at, updated_at
		FROM friend_requests
		WHERE id = $1
	`, id)
	if err := row.Scan(&fr.ID, &fr.SenderID, &fr.RecipientID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt); err != nil {
		if missingRow(err) {
			return nil, apperr.NotFound("friend request not found")
		}
		return nil, apperr.Dependency("get friend request failed", err)
	}
	return fr, nil
}

// Accept flips a pending request to accepted and writes both friendship
// edges in one transaction, so either both accounts gain the friend or
// neither does. The status guard on the UPDATE makes concurrent accepts
// lose cleanly.
func (r *FriendRequestRepository) Accept(ctx context.Context, id string) (*entity.FriendRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Dependency("begin accept tx failed", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	fr := &entity.FriendRequest{Status: entity.RequestAccepted}
	row := tx.QueryRow(ctx, `
		UPDATE friend_requests
		SET status = 'accepted', updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, sender_id, recipient_id, created_at, updated_at
	`, id)
	if err := row.Scan(&fr.ID, &fr.SenderID, &fr.RecipientID, &fr.CreatedAt, &fr.UpdatedAt); err != nil {
		if missingRow(err) {
			return nil, r.classifyUnacceptable(ctx, id)
		}
		return nil, apperr.Dependency("accept update failed", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`, fr.SenderID, fr.RecipientID); err != nil {
		return nil, apperr.Dependency("create friendship failed", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Dependency("commit accept tx failed", err)
	}
	return fr, nil
}

// classifyUnacceptable distinguishes a request that is gone from one that
// was already accepted.
func (r *FriendRequestRepository) classifyUnacceptable(ctx context.Context, id string) error {
	var status entity.RequestStatus
	err := r.pool.QueryRow(ctx, `SELECT status FROM friend_requests WHERE id = $1`, id).Scan(&status)
	if missingRow(err) {
		return apperr.NotFound("friend request not found")
	}
	if err != nil {
		return apperr.Dependency("get friend request failed", err)
	}
	return apperr.Conflict("friend request already accepted")
}

func (r *FriendRequestRepository) ListIncoming(ctx context.Context, recipientID string) ([]entity.IncomingRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT fr.id, fr.sender_id, fr.recipient_id, fr.status, fr.created_at, fr.updated_at,
		       u.id, u.full_name, u.avatar_url, u.native_language, u.learning_language
		FROM friend_requests fr
		JOIN users u ON u.id = fr.sender_id
		WHERE fr.recipient_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at DESC
	`, recipientID)
	if err != nil {
		return nil, apperr.Dependency("list incoming requests failed", err)
	}
	defer rows.Close()

	out := make([]entity.IncomingRequest, 0)
	for rows.Next() {
		var in entity.IncomingRequest
		if err := rows.Scan(&in.ID, &in.SenderID, &in.RecipientID, &in.Status, &in.CreatedAt, &in.UpdatedAt,
			&in.Sender.ID, &in.Sender.FullName, &in.Sender.AvatarURL, &in.Sender.NativeLanguage, &in.Sender.LearningLanguage); err != nil {
			return nil, apperr.Dependency("scan incoming request failed", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency("iterate incoming requests failed", err)
	}
	return out, nil
}

func (r *FriendRequestRepository) ListOutgoing(ctx context.Context, senderID string) ([]entity.OutgoingRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT fr.id, fr.sender_id, fr.recipient_id, fr.status, fr.created_at, fr.updated_at,
		       u.id, u.full_name, u.avatar_url, u.native_language, u.learning_language
		FROM friend_requests fr
		JOIN users u ON u.id = fr.recipient_id
		WHERE fr.sender_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at DESC
	`, senderID)
	if err != nil {
		return nil, apperr.Dependency("list outgoing requests failed", err)
	}
	defer rows.Close()

	out := make([]entity.OutgoingRequest, 0)
	for rows.Next() {
		var o entity.OutgoingRequest
		if err := rows.Scan(&o.ID, &o.SenderID, &o.RecipientID, &o.Status, &o.CreatedAt, &o.UpdatedAt,
			&o.Recipient.ID, &o.Recipient.FullName, &o.Recipient.AvatarURL, &o.Recipient.NativeLanguage, &o.Recipient.LearningLanguage); err != nil {
			return nil, apperr.Dependency("scan outgoing request failed", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency("iterate outgoing requests failed", err)
	}
	return out, nil
}

func (r *FriendRequestRepository) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2
		)
	`, userID, otherID).Scan(&exists)
	if err != nil {
		return false, apperr.Dependency("friendship lookup failed", err)
	}
	return exists, nil
}

var _ repository.FriendRequestRepository = (*FriendRequestRepository)(nil)

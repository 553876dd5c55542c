package repository

import (
	"context"

	"github.com/peerlingo/peerlingo/internal/domain/entity"
)

// FriendRequestRepository defines the store operations for the friend
// request state machine and the friendship edges it produces.
type FriendRequestRepository interface {
	// Create inserts a pending request. The store's unordered-pair
	// uniqueness constraint is the correctness guarantee against duplicate
	// and reverse-duplicate sends, concurrent ones included; violations
	// surface as a conflict.
	Create(ctx context.Context, senderID, recipientID string) (*entity.FriendRequest, error)
	GetByID(ctx context.Context, id string) (*entity.FriendRequest, error)
	// Accept transitions the request to accepted and writes both friendship
	// edges in a single transaction. A request that is no longer pending
	// surfaces as a conflict, a missing one as not found.
	Accept(ctx context.Context, id string) (*entity.FriendRequest, error)
	ListIncoming(ctx context.Context, recipientID string) ([]entity.IncomingRequest, error)
	ListOutgoing(ctx context.Context, senderID string) ([]entity.OutgoingRequest, error)
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
}

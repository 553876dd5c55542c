package entity

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
)

// FriendRequest is a directed proposal between two accounts. At most one
// request exists per unordered account pair; it transitions once, from
// pending to accepted, and is never deleted.
type FriendRequest struct {
	ID          string        `json:"id"`
	SenderID    string        `json:"senderId"`
	RecipientID string        `json:"recipientId"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// IncomingRequest joins a pending request with the sender's summary profile.
type IncomingRequest struct {
	FriendRequest
	Sender UserSummary `json:"sender"`
}

// OutgoingRequest joins a pending request with the recipient's summary profile.
type OutgoingRequest struct {
	FriendRequest
	Recipient UserSummary `json:"recipient"`
}

package application

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/peerlingo/peerlingo/config"
	"github.com/peerlingo/peerlingo/internal/domain/entity"
	repo "github.com/peerlingo/peerlingo/internal/domain/repository"
	"github.com/peerlingo/peerlingo/pkg/apperr"
	"github.com/peerlingo/peerlingo/pkg/helpers"
	"github.com/peerlingo/peerlingo/pkg/mailer"
	tpl "github.com/peerlingo/peerlingo/pkg/mailer/templates"
)

// FriendService drives the friend-request state machine: per unordered
// account pair, none -> pending(sender) -> accepted, nothing else.
type FriendService struct {
	Users    repo.UserRepository
	Requests repo.FriendRequestRepository
	Redis    *redis.Client
	Pub      *helpers.RabbitPublisher
	Logger   *logrus.Logger
	Cfg      *config.Config
}

func NewFriendService(users repo.UserRepository, requests repo.FriendRequestRepository, rdb *redis.Client, pub *helpers.RabbitPublisher, logger *logrus.Logger, cfg *config.Config) *FriendService {
	return &FriendService{
		Users:    users,
		Requests: requests,
		Redis:    rdb,
		Pub:      pub,
		Logger:   logger,
		Cfg:      cfg,
	}
}

func keyFriends(id string) string     { return "user:friends:" + id }
func keyRecommended(id string) string { return "user:recommended:" + id }

// Send creates a pending request from sender to recipient. Duplicate and
// reverse-duplicate sends are rejected by the store's pair constraint, so
// concurrent sends for the same pair cannot both succeed.
func (s *FriendService) Send(ctx context.Context, senderID, recipientID string) (*entity.FriendRequest, error) {
	if senderID == recipientID {
		return nil, apperr.Validation("you cannot send a friend request to yourself", "recipient")
	}
	recipient, err := s.Users.GetByID(ctx, recipientID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Validation("recipient account does not exist", "recipient")
		}
		return nil, err
	}
	friends, err := s.Requests.AreFriends(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, apperr.Conflict("you are already friends with this user")
	}

	fr, err := s.Requests.Create(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, senderID, recipientID)
	s.notifyRecipient(ctx, senderID, recipient)
	return fr, nil
}

// Accept transitions a pending request to accepted. Only the recipient may
// accept; accepting twice is a conflict, not a silent no-op.
func (s *FriendService) Accept(ctx context.Context, requestID, actorID string) (*entity.FriendRequest, error) {
	fr, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if fr.RecipientID != actorID {
		return nil, apperr.Auth("only the recipient can accept a friend request")
	}
	if fr.Status == entity.RequestAccepted {
		return nil, apperr.Conflict("friend request already accepted")
	}

	accepted, err := s.Requests.Accept(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, accepted.SenderID, accepted.RecipientID)
	return accepted, nil
}

// Friends lists the account's friends as summary profiles, read through the
// cache when one is configured.
func (s *FriendService) Friends(ctx context.Context, accountID string) ([]entity.UserSummary, error) {
	if s.Redis != nil {
		var cached []entity.UserSummary
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, keyFriends(accountID), &cached); err == nil && ok {
			return cached, nil
		}
	}
	out, err := s.Users.ListFriends(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, keyFriends(accountID), out, s.Cfg.CacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("cache friends failed")
		}
	}
	return out, nil
}

func (s *FriendService) Incoming(ctx context.Context, accountID string) ([]entity.IncomingRequest, error) {
	return s.Requests.ListIncoming(ctx, accountID)
}

func (s *FriendService) Outgoing(ctx context.Context, accountID string) ([]entity.OutgoingRequest, error) {
	return s.Requests.ListOutgoing(ctx, accountID)
}

// Recommend lists onboarded accounts that are neither the caller, nor a
// current friend, nor a party to any request with the caller.
func (s *FriendService) Recommend(ctx context.Context, accountID string) ([]entity.UserSummary, error) {
	if s.Redis != nil {
		var cached []entity.UserSummary
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, keyRecommended(accountID), &cached); err == nil && ok {
			return cached, nil
		}
	}
	out, err := s.Users.ListRecommended(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, keyRecommended(accountID), out, s.Cfg.CacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("cache recommendations failed")
		}
	}
	return out, nil
}

func (s *FriendService) invalidate(ctx context.Context, ids ...string) {
	if s.Redis == nil {
		return
	}
	keys := make([]string, 0, len(ids)*2)
	for _, id := range ids {
		keys = append(keys, keyFriends(id), keyRecommended(id))
	}
	if err := helpers.RedisDel(ctx, s.Redis, keys...); err != nil && s.Logger != nil {
		s.Logger.WithError(err).Warn("cache invalidation failed")
	}
}

func (s *FriendService) notifyRecipient(ctx context.Context, senderID string, recipient *entity.User) {
	if s.Pub == nil || !s.Cfg.MailSendEnabled {
		return
	}
	sender, err := s.Users.GetByID(ctx, senderID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("lookup sender for notification failed")
		}
		return
	}
	job := mailer.EmailJob{
		To:       recipient.Email,
		Template: tpl.FriendRequest,
		Data: map[string]any{
			"SenderName": sender.FullName,
			"Name":       recipient.FullName,
		},
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("recipient", fmt.Sprintf("user:%s", recipient.ID)).Warn("enqueue friend request email failed")
	}
}

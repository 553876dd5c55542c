package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/peerlingo/peerlingo/config"
	"github.com/peerlingo/peerlingo/internal/domain/entity"
	"github.com/peerlingo/peerlingo/pkg/apperr"
)

// memStore is an in-memory stand-in for both repositories, mirroring the
// postgres implementations' error kinds and the pair uniqueness guarantee.
type memStore struct {
	mu          sync.Mutex
	userSeq     int
	reqSeq      int
	users       map[string]*entity.User
	requests    map[string]*entity.FriendRequest
	friendships map[string]map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*entity.User{},
		requests:    map[string]*entity.FriendRequest{},
		friendships: map[string]map[string]bool{},
	}
}

func (m *memStore) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperr.Conflict("email already exists")
		}
	}
	m.userSeq++
	u.ID = fmt.Sprintf("user-%03d", m.userSeq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("account not found")
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("account not found")
}

func (m *memStore) OnboardProfile(_ context.Context, id string, p entity.ProfileUpdate) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("account not found")
	}
	u.FullName = p.FullName
	u.Bio = p.Bio
	u.NativeLanguage = p.NativeLanguage
	u.LearningLanguage = p.LearningLanguage
	u.Location = p.Location
	u.IsOnboarded = true
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdateAvatar(_ context.Context, id, avatarURL string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("account not found")
	}
	u.AvatarURL = avatarURL
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (m *memStore) ListFriends(_ context.Context, id string) ([]entity.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.UserSummary, 0)
	for fid := range m.friendships[id] {
		if u, ok := m.users[fid]; ok {
			out = append(out, u.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (m *memStore) ListRecommended(_ context.Context, id string) ([]entity.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.users))
	for uid := range m.users {
		ids = append(ids, uid)
	}
	sort.Strings(ids) // ids are sequence-ordered, so this matches creation order
	out := make([]entity.UserSummary, 0)
	for _, uid := range ids {
		u := m.users[uid]
		if uid == id || !u.IsOnboarded || m.friendships[id][uid] {
			continue
		}
		if m.requestBetween(id, uid) != nil {
			continue
		}
		out = append(out, u.Summary())
	}
	return out, nil
}

func (m *memStore) requestBetween(a, b string) *entity.FriendRequest {
	for _, fr := range m.requests {
		if (fr.SenderID == a && fr.RecipientID == b) || (fr.SenderID == b && fr.RecipientID == a) {
			return fr
		}
	}
	return nil
}

func (m *memStore) CreateRequest(_ context.Context, senderID, recipientID string) (*entity.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requestBetween(senderID, recipientID) != nil {
		return nil, apperr.Conflict("a friend request already exists between these accounts")
	}
	m.reqSeq++
	fr := &entity.FriendRequest{
		ID:          fmt.Sprintf("req-%03d", m.reqSeq),
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      entity.RequestPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.requests[fr.ID] = fr
	cp := *fr
	return &cp, nil
}

func (m *memStore) GetRequestByID(_ context.Context, id string) (*entity.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fr, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("friend request not found")
	}
	cp := *fr
	return &cp, nil
}

func (m *memStore) AcceptRequest(_ context.Context, id string) (*entity.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fr, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("friend request not found")
	}
	if fr.Status != entity.RequestPending {
		return nil, apperr.Conflict("friend request already accepted")
	}
	fr.Status = entity.RequestAccepted
	fr.UpdatedAt = time.Now()
	m.link(fr.SenderID, fr.RecipientID)
	m.link(fr.RecipientID, fr.SenderID)
	cp := *fr
	return &cp, nil
}

func (m *memStore) link(a, b string) {
	if m.friendships[a] == nil {
		m.friendships[a] = map[string]bool{}
	}
	m.friendships[a][b] = true
}

func (m *memStore) ListIncoming(_ context.Context, recipientID string) ([]entity.IncomingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.IncomingRequest, 0)
	for _, fr := range m.requests {
		if fr.RecipientID == recipientID && fr.Status == entity.RequestPending {
			in := entity.IncomingRequest{FriendRequest: *fr}
			if u, ok := m.users[fr.SenderID]; ok {
				in.Sender = u.Summary()
			}
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListOutgoing(_ context.Context, senderID string) ([]entity.OutgoingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.OutgoingRequest, 0)
	for _, fr := range m.requests {
		if fr.SenderID == senderID && fr.Status == entity.RequestPending {
			o := entity.OutgoingRequest{FriendRequest: *fr}
			if u, ok := m.users[fr.RecipientID]; ok {
				o.Recipient = u.Summary()
			}
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) AreFriends(_ context.Context, userID, otherID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.friendships[userID][otherID], nil
}

// requestRepo adapts memStore to the FriendRequestRepository interface,
// whose method names differ from the user side.
type requestRepo struct{ *memStore }

func (r requestRepo) Create(ctx context.Context, senderID, recipientID string) (*entity.FriendRequest, error) {
	return r.CreateRequest(ctx, senderID, recipientID)
}

func (r requestRepo) GetByID(ctx context.Context, id string) (*entity.FriendRequest, error) {
	return r.GetRequestByID(ctx, id)
}

func (r requestRepo) Accept(ctx context.Context, id string) (*entity.FriendRequest, error) {
	return r.AcceptRequest(ctx, id)
}

// outageStore simulates a store that is down: every lookup fails with a
// dependency error instead of a domain answer.
type outageStore struct{ *memStore }

func (outageStore) GetByEmail(context.Context, string) (*entity.User, error) {
	return nil, apperr.Dependency("get account failed", errors.New("connection refused"))
}

// failingSyncer simulates an unavailable directory.
type failingSyncer struct{}

func (failingSyncer) Upsert(context.Context, string, string, string) error {
	return apperr.Dependency("directory upsert failed", nil)
}

func testConfig() *config.Config {
	return &config.Config{
		AvatarBaseURL:  "https://avatar.iran.liara.run/public",
		AvatarPoolSize: 100,
		CacheTTL:       time.Minute,
		ESUsersIndex:   "",
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerlingo/peerlingo/config"
	"github.com/peerlingo/peerlingo/internal/application"
	"github.com/peerlingo/peerlingo/internal/domain/entity"
	"github.com/peerlingo/peerlingo/internal/interface/middleware"
	"github.com/peerlingo/peerlingo/pkg/apperr"
	"github.com/peerlingo/peerlingo/pkg/helpers"
	"github.com/peerlingo/peerlingo/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

// fakeStore backs both repositories for route tests.
type fakeStore struct {
	mu       sync.Mutex
	userSeq  int
	reqSeq   int
	users    map[string]*entity.User
	requests map[string]*entity.FriendRequest
	friends  map[string]map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*entity.User{},
		requests: map[string]*entity.FriendRequest{},
		friends:  map[string]map[string]bool{},
	}
}

func (f *fakeStore) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.users {
		if e.Email == u.Email {
			return apperr.Conflict("email already exists")
		}
	}
	f.userSeq++
	u.ID = fmt.Sprintf("user-%03d", f.userSeq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("account not found")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("account not found")
}

func (f *fakeStore) OnboardProfile(_ context.Context, id string, p entity.ProfileUpdate) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("account not found")
	}
	u.FullName = p.FullName
	u.Bio = p.Bio
	u.NativeLanguage = p.NativeLanguage
	u.LearningLanguage = p.LearningLanguage
	u.Location = p.Location
	u.IsOnboarded = true
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UpdateAvatar(_ context.Context, id, avatarURL string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("account not found")
	}
	u.AvatarURL = avatarURL
	cp := *u
	return &cp, nil
}

func (f *fakeStore) ListFriends(_ context.Context, id string) ([]entity.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.UserSummary, 0)
	for fid := range f.friends[id] {
		if u, ok := f.users[fid]; ok {
			out = append(out, u.Summary())
		}
	}
	return out, nil
}

func (f *fakeStore) ListRecommended(_ context.Context, id string) ([]entity.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.UserSummary, 0)
	for uid, u := range f.users {
		if uid == id || !u.IsOnboarded || f.friends[id][uid] {
			continue
		}
		out = append(out, u.Summary())
	}
	return out, nil
}

func (f *fakeStore) CreateRequest(_ context.Context, senderID, recipientID string) (*entity.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fr := range f.requests {
		if (fr.SenderID == senderID && fr.RecipientID == recipientID) ||
			(fr.SenderID == recipientID && fr.RecipientID == senderID) {
			return nil, apperr.Conflict("a friend request already exists between these accounts")
		}
	}
	f.reqSeq++
	fr := &entity.FriendRequest{
		ID:          fmt.Sprintf("req-%03d", f.reqSeq),
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      entity.RequestPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.requests[fr.ID] = fr
	cp := *fr
	return &cp, nil
}

func (f *fakeStore) GetRequestByID(_ context.Context, id string) (*entity.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fr, ok := f.requests[id]
	if !ok {
		return nil, apperr.NotFound("friend request not found")
	}
	cp := *fr
	return &cp, nil
}

func (f *fakeStore) AcceptRequest(_ context.Context, id string) (*entity.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fr, ok := f.requests[id]
	if !ok {
		return nil, apperr.NotFound("friend request not found")
	}
	if fr.Status != entity.RequestPending {
		return nil, apperr.Conflict("friend request already accepted")
	}
	fr.Status = entity.RequestAccepted
	for _, pair := range [][2]string{{fr.SenderID, fr.RecipientID}, {fr.RecipientID, fr.SenderID}} {
		if f.friends[pair[0]] == nil {
			f.friends[pair[0]] = map[string]bool{}
		}
		f.friends[pair[0]][pair[1]] = true
	}
	cp := *fr
	return &cp, nil
}

func (f *fakeStore) ListIncoming(_ context.Context, recipientID string) ([]entity.IncomingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.IncomingRequest, 0)
	for _, fr := range f.requests {
		if fr.RecipientID == recipientID && fr.Status == entity.RequestPending {
			in := entity.IncomingRequest{FriendRequest: *fr}
			if u, ok := f.users[fr.SenderID]; ok {
				in.Sender = u.Summary()
			}
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOutgoing(_ context.Context, senderID string) ([]entity.OutgoingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.OutgoingRequest, 0)
	for _, fr := range f.requests {
		if fr.SenderID == senderID && fr.Status == entity.RequestPending {
			o := entity.OutgoingRequest{FriendRequest: *fr}
			if u, ok := f.users[fr.RecipientID]; ok {
				o.Recipient = u.Summary()
			}
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) AreFriends(_ context.Context, userID, otherID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.friends[userID][otherID], nil
}

type fakeRequestRepo struct{ *fakeStore }

func (r fakeRequestRepo) Create(ctx context.Context, senderID, recipientID string) (*entity.FriendRequest, error) {
	return r.CreateRequest(ctx, senderID, recipientID)
}

func (r fakeRequestRepo) GetByID(ctx context.Context, id string) (*entity.FriendRequest, error) {
	return r.GetRequestByID(ctx, id)
}

func (r fakeRequestRepo) Accept(ctx context.Context, id string) (*entity.FriendRequest, error) {
	return r.AcceptRequest(ctx, id)
}

const testCookie = "session"

type testApp struct {
	engine   *gin.Engine
	store    *fakeStore
	auth     *application.AuthService
	friends  *application.FriendService
	sessions *helpers.SessionManager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{
		AvatarBaseURL:  "https://avatar.iran.liara.run/public",
		AvatarPoolSize: 100,
		CacheTTL:       time.Minute,
	}
	store := newFakeStore()
	sessions := helpers.NewSessionManager("handler-test-secret", time.Hour)
	authSvc := application.NewAuthService(store, sessions, nil, nil, nil, nil, nil, cfg)
	friendSvc := application.NewFriendService(store, fakeRequestRepo{store}, nil, nil, nil, cfg)

	authHandler := NewAuthHandler(authSvc, nil, testCookie, "localhost", false)
	userHandler := NewUserHandler(authSvc, friendSvc, nil)

	engine := gin.New()
	api := engine.Group("/api")
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	protected := api.Group("/")
	protected.Use(middleware.Auth(sessions, testCookie))
	protected.POST("/auth/onboard", authHandler.Onboard)
	protected.GET("/auth/me", authHandler.Me)
	protected.GET("/users", userHandler.Recommend)
	protected.GET("/users/friends", userHandler.ListFriends)
	protected.POST("/users/friend-request/:id", userHandler.SendFriendRequest)
	protected.PUT("/users/friend-request/:id/accept", userHandler.AcceptFriendRequest)
	protected.GET("/users/friend-requests", userHandler.IncomingRequests)
	protected.GET("/users/outgoing-friend-requests", userHandler.OutgoingRequests)

	return &testApp{engine: engine, store: store, auth: authSvc, friends: friendSvc, sessions: sessions}
}

func (a *testApp) do(t *testing.T, method, path, cookie string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: cookie})
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookie {
			return c.Value
		}
	}
	t.Fatal("no session cookie in response")
	return ""
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSignupSetsSessionCookie(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"fullName": "Mia Tanaka", "email": "mia@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	cookie := sessionCookie(t, w)
	claims, err := app.sessions.Parse(cookie)
	require.NoError(t, err)

	env := decode(t, w)
	assert.True(t, env.Success)
	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, data["id"], claims.UserID)
	assert.Equal(t, "mia@example.com", data["email"])
	assert.Equal(t, false, data["isOnboarded"])
	assert.NotContains(t, data, "password")
}

func TestSignupValidationDetails(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "mia@example.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "please fill all the fields", env.Message)
	var detail struct {
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(env.Error, &detail))
	assert.Equal(t, []string{"fullName", "password"}, detail.Fields)
}

func TestSignupDuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	body := gin.H{"fullName": "Mia", "email": "mia@example.com", "password": "secret123"}

	w := app.do(t, http.MethodPost, "/api/auth/signup", "", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.do(t, http.MethodPost, "/api/auth/signup", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginResponsesAreUniform(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"fullName": "Mia", "email": "mia@example.com", "password": "secret123",
	})

	wrongPassword := app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "mia@example.com", "password": "wrong-password",
	})
	unknownEmail := app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "nobody@example.com", "password": "secret123",
	})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, decode(t, wrongPassword).Message, decode(t, unknownEmail).Message)
}

func TestLoginSuccess(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"fullName": "Mia", "email": "mia@example.com", "password": "secret123",
	})

	w := app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "mia@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	me := app.do(t, http.MethodGet, "/api/auth/me", cookie, nil)
	require.Equal(t, http.StatusOK, me.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app := newTestApp(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPost, "/api/auth/onboard"},
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/users/friends"},
		{http.MethodPost, "/api/users/friend-request/user-001"},
		{http.MethodPut, "/api/users/friend-request/req-001/accept"},
		{http.MethodGet, "/api/users/friend-requests"},
		{http.MethodGet, "/api/users/outgoing-friend-requests"},
	} {
		w := app.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestGarbageCookieRejected(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionCookiePolicy(t *testing.T) {
	app := newTestApp(t)

	signup := app.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"fullName": "Mia", "email": "mia@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, signup.Code)
	login := app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "mia@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, login.Code)

	for name, w := range map[string]*httptest.ResponseRecorder{"signup": signup, "login": login} {
		var sc *http.Cookie
		for _, c := range w.Result().Cookies() {
			if c.Name == testCookie {
				sc = c
			}
		}
		require.NotNil(t, sc, name)
		assert.True(t, sc.HttpOnly, name)
		assert.Equal(t, http.SameSiteStrictMode, sc.SameSite, name)
		assert.Equal(t, "/", sc.Path, name)
		// max-age tracks the session TTL, fixed at issue time
		assert.Greater(t, sc.MaxAge, 0, name)
		assert.LessOrEqual(t, sc.MaxAge, int(time.Hour.Seconds()), name)
		assert.Greater(t, sc.MaxAge, int(time.Hour.Seconds())-60, name)
	}
}

func TestSessionTTLDefaultsToSevenDays(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, config.Load().SessionTTL)
}

func TestLogoutClearsCookie(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookie {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestOnboardFlow(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"fullName": "Mia", "email": "mia@example.com", "password": "secret123",
	})
	cookie := sessionCookie(t, w)

	missing := app.do(t, http.MethodPost, "/api/auth/onboard", cookie, gin.H{
		"fullName": "Mia", "nativeLanguage": "japanese",
	})
	require.Equal(t, http.StatusBadRequest, missing.Code)
	var detail struct {
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(decode(t, missing).Error, &detail))
	assert.Equal(t, []string{"bio", "learningLanguage", "location"}, detail.Fields)

	done := app.do(t, http.MethodPost, "/api/auth/onboard", cookie, gin.H{
		"fullName":         "Mia Tanaka",
		"bio":              "hello",
		"nativeLanguage":   "japanese",
		"learningLanguage": "english",
		"location":         "Osaka",
	})
	require.Equal(t, http.StatusOK, done.Code)
	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, done).Data, &data))
	assert.Equal(t, true, data["isOnboarded"])
	assert.Equal(t, "Mia Tanaka", data["fullName"])
}

func TestFriendRequestRoutes(t *testing.T) {
	app := newTestApp(t)

	signup := func(name, email string) (string, string) {
		w := app.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
			"fullName": name, "email": email, "password": "secret123",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var data map[string]any
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
		return data["id"].(string), sessionCookie(t, w)
	}

	aliceID, aliceCookie := signup("Alice", "alice@example.com")
	bobID, bobCookie := signup("Bob", "bob@example.com")

	// self-request rejected
	self := app.do(t, http.MethodPost, "/api/users/friend-request/"+aliceID, aliceCookie, nil)
	assert.Equal(t, http.StatusBadRequest, self.Code)

	send := app.do(t, http.MethodPost, "/api/users/friend-request/"+bobID, aliceCookie, nil)
	require.Equal(t, http.StatusCreated, send.Code)
	var fr entity.FriendRequest
	require.NoError(t, json.Unmarshal(decode(t, send).Data, &fr))
	assert.Equal(t, entity.RequestPending, fr.Status)

	dup := app.do(t, http.MethodPost, "/api/users/friend-request/"+bobID, aliceCookie, nil)
	assert.Equal(t, http.StatusConflict, dup.Code)
	reverse := app.do(t, http.MethodPost, "/api/users/friend-request/"+aliceID, bobCookie, nil)
	assert.Equal(t, http.StatusConflict, reverse.Code)

	incoming := app.do(t, http.MethodGet, "/api/users/friend-requests", bobCookie, nil)
	require.Equal(t, http.StatusOK, incoming.Code)
	var in []entity.IncomingRequest
	require.NoError(t, json.Unmarshal(decode(t, incoming).Data, &in))
	require.Len(t, in, 1)
	assert.Equal(t, "Alice", in[0].Sender.FullName)

	// sender cannot accept their own request
	bySender := app.do(t, http.MethodPut, "/api/users/friend-request/"+fr.ID+"/accept", aliceCookie, nil)
	assert.Equal(t, http.StatusUnauthorized, bySender.Code)

	accept := app.do(t, http.MethodPut, "/api/users/friend-request/"+fr.ID+"/accept", bobCookie, nil)
	require.Equal(t, http.StatusOK, accept.Code)

	again := app.do(t, http.MethodPut, "/api/users/friend-request/"+fr.ID+"/accept", bobCookie, nil)
	assert.Equal(t, http.StatusConflict, again.Code)

	friends := app.do(t, http.MethodGet, "/api/users/friends", aliceCookie, nil)
	require.Equal(t, http.StatusOK, friends.Code)
	var list []entity.UserSummary
	require.NoError(t, json.Unmarshal(decode(t, friends).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, bobID, list[0].ID)

	missing := app.do(t, http.MethodPut, "/api/users/friend-request/req-999/accept", bobCookie, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

// Path ids come straight from clients; garbage ids must read as missing
// entities, never as an upstream failure.
func TestMalformedPathIDs(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"fullName": "Mia", "email": "mia@example.com", "password": "secret123",
	})
	cookie := sessionCookie(t, w)

	send := app.do(t, http.MethodPost, "/api/users/friend-request/not-a-uuid", cookie, nil)
	assert.Equal(t, http.StatusBadRequest, send.Code)
	assert.Equal(t, "recipient account does not exist", decode(t, send).Message)

	accept := app.do(t, http.MethodPut, "/api/users/friend-request/not-a-uuid/accept", cookie, nil)
	assert.Equal(t, http.StatusNotFound, accept.Code)
}

package application

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/peerlingo/peerlingo/config"
	"github.com/peerlingo/peerlingo/internal/domain/entity"
	repo "github.com/peerlingo/peerlingo/internal/domain/repository"
	"github.com/peerlingo/peerlingo/pkg/apperr"
	"github.com/peerlingo/peerlingo/pkg/directory"
	"github.com/peerlingo/peerlingo/pkg/helpers"
	"github.com/peerlingo/peerlingo/pkg/mailer"
	tpl "github.com/peerlingo/peerlingo/pkg/mailer/templates"
)

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLen = 6

// AuthService manages the account lifecycle: signup, login, onboarding and
// the session tokens that prove identity.
type AuthService struct {
	Users     repo.UserRepository
	Sessions  *helpers.SessionManager
	Directory directory.Syncer
	Pub       *helpers.RabbitPublisher
	GCS       *storage.Client
	ES        *elasticsearch.Client
	Logger    *logrus.Logger
	Cfg       *config.Config
}

func NewAuthService(users repo.UserRepository, sessions *helpers.SessionManager, dir directory.Syncer, pub *helpers.RabbitPublisher, gcs *storage.Client, es *elasticsearch.Client, logger *logrus.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		Users:     users,
		Sessions:  sessions,
		Directory: dir,
		Pub:       pub,
		GCS:       gcs,
		ES:        es,
		Logger:    logger,
		Cfg:       cfg,
	}
}

// Signup validates the input, creates the account with a pool avatar and an
// unset onboarding flag, and issues a session. Directory sync, search
// indexing and the welcome email are best-effort side calls.
func (s *AuthService) Signup(ctx context.Context, fullName, email, password string) (*entity.User, string, time.Time, error) {
	var missing []string
	if strings.TrimSpace(fullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(email) == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, "", time.Time{}, apperr.Validation("please fill all the fields", missing...)
	}
	if len(password) < minPasswordLen {
		return nil, "", time.Time{}, apperr.Validation("password must be at least 6 characters", "password")
	}
	if !emailRx.MatchString(email) {
		return nil, "", time.Time{}, apperr.Validation("please enter a valid email", "email")
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	u := &entity.User{
		Email:     email,
		Password:  hash,
		FullName:  fullName,
		AvatarURL: helpers.RandomAvatarURL(s.Cfg.AvatarBaseURL, s.Cfg.AvatarPoolSize),
	}
	// Duplicate emails, concurrent signups included, surface from the
	// store's unique constraint.
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, "", time.Time{}, err
	}

	s.syncDirectory(u)
	s.indexProfile(ctx, u)
	s.enqueueEmail(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: tpl.Welcome,
		Data:     map[string]any{"Name": u.FullName, "Email": u.Email},
	})

	token, exp, err := s.Sessions.Issue(u.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return u, token, exp, nil
}

// Login checks credentials and issues a session. Unknown email and wrong
// password are deliberately indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, string, time.Time, error) {
	var missing []string
	if strings.TrimSpace(email) == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, "", time.Time{}, apperr.Validation("please fill all the fields", missing...)
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		// only a missing account folds into the uniform credential error;
		// a store failure is not a credential problem and propagates
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, "", time.Time{}, apperr.Auth("invalid email or password")
		}
		return nil, "", time.Time{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, "", time.Time{}, apperr.Auth("invalid email or password")
	}

	token, exp, err := s.Sessions.Issue(u.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return u, token, exp, nil
}

// Onboard applies the allow-listed profile fields and marks the account
// onboarded. All five fields are required.
func (s *AuthService) Onboard(ctx context.Context, accountID string, p entity.ProfileUpdate) (*entity.User, error) {
	var missing []string
	if strings.TrimSpace(p.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(p.Bio) == "" {
		missing = append(missing, "bio")
	}
	if strings.TrimSpace(p.NativeLanguage) == "" {
		missing = append(missing, "nativeLanguage")
	}
	if strings.TrimSpace(p.LearningLanguage) == "" {
		missing = append(missing, "learningLanguage")
	}
	if strings.TrimSpace(p.Location) == "" {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("please fill all the fields", missing...)
	}

	u, err := s.Users.OnboardProfile(ctx, accountID, p)
	if err != nil {
		return nil, err
	}

	s.syncDirectory(u)
	s.indexProfile(ctx, u)
	return u, nil
}

func (s *AuthService) GetProfile(ctx context.Context, accountID string) (*entity.User, error) {
	return s.Users.GetByID(ctx, accountID)
}

// UploadAvatar replaces the pool avatar with an uploaded image stored in GCS.
func (s *AuthService) UploadAvatar(ctx context.Context, accountID string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.GCS == nil || s.Cfg.GCSBucket == "" {
		return nil, apperr.Dependency("avatar storage not configured", nil)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", accountID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.Cfg.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return nil, apperr.Dependency("avatar upload failed", err)
	}
	u, err := s.Users.UpdateAvatar(ctx, accountID, url)
	if err != nil {
		return nil, err
	}
	s.syncDirectory(u)
	s.indexProfile(ctx, u)
	return u, nil
}

// syncDirectory pushes the profile to the external chat directory without
// blocking the primary flow. The error channel ends in the log and nowhere
// else.
func (s *AuthService) syncDirectory(u *entity.User) {
	if s.Directory == nil {
		return
	}
	id, name, avatar := u.ID, u.FullName, u.AvatarURL
	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errCh <- s.Directory.Upsert(ctx, id, name, avatar)
	}()
	go func() {
		if err := <-errCh; err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("directory sync failed")
		}
	}()
}

func (s *AuthService) enqueueEmail(ctx context.Context, job mailer.EmailJob) {
	if s.Pub == nil || !s.Cfg.MailSendEnabled {
		return
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("template", job.Template).Warn("enqueue email failed")
	}
}

func (s *AuthService) indexProfile(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.Cfg.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":                u.ID,
		"email":             u.Email,
		"full_name":         u.FullName,
		"avatar_url":        u.AvatarURL,
		"native_language":   u.NativeLanguage,
		"learning_language": u.LearningLanguage,
		"is_onboarded":      u.IsOnboarded,
		"updated_at":        u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.Cfg.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

// SearchProfiles performs a multi_match search on name, email and languages.
func (s *AuthService) SearchProfiles(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.Cfg.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"full_name^2", "email", "native_language", "learning_language"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.Cfg.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, apperr.Dependency("profile search failed", err)
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperr.Dependency("profile search decode failed", err)
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

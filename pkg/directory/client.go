// Package directory pushes profile data to the external presence/chat
// directory. Calls are best-effort from the caller's point of view: failures
// are returned for logging, never for propagation.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/peerlingo/peerlingo/pkg/apperr"
)

// Syncer is the collaborator interface the account and friend services use.
type Syncer interface {
	Upsert(ctx context.Context, accountID, displayName, imageURL string) error
}

// Client talks to the directory's REST API. Requests carry the API key plus
// a short-lived server token signed with the API secret.
type Client struct {
	BaseURL string
	APIKey  string
	secret  []byte
	HTTP    *http.Client
}

func New(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		secret:  []byte(apiSecret),
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

type upsertPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Upsert creates or updates the directory entry for an account.
func (c *Client) Upsert(ctx context.Context, accountID, displayName, imageURL string) error {
	body, err := json.Marshal(upsertPayload{ID: accountID, Name: displayName, Image: imageURL})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return err
	}
	token, err := c.serverToken()
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apperr.Dependency("directory upsert failed", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return apperr.Dependency("directory upsert failed", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}

// serverToken signs a one-minute server-side token the directory accepts
// for administrative calls.
func (c *Client) serverToken() (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    "server",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

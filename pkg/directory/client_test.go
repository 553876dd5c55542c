package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerlingo/peerlingo/pkg/apperr"
)

func TestClient_UpsertSendsPayloadAndAuth(t *testing.T) {
	var gotPath, gotKey, gotAuth string
	var gotBody upsertPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "api-key", "api-secret")
	err := c.Upsert(context.Background(), "acc-1", "Amira", "https://img.example/1.png")
	require.NoError(t, err)

	assert.Equal(t, "/users", gotPath)
	assert.Equal(t, "api-key", gotKey)
	assert.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	assert.Equal(t, upsertPayload{ID: "acc-1", Name: "Amira", Image: "https://img.example/1.png"}, gotBody)
}

func TestClient_UpsertReportsDependencyErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "api-key", "api-secret")
	err := c.Upsert(context.Background(), "acc-1", "Amira", "")

	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))
}

func TestClient_UpsertReportsDependencyErrorOnConnectFailure(t *testing.T) {
	c := New("http://127.0.0.1:1", "api-key", "api-secret")
	err := c.Upsert(context.Background(), "acc-1", "Amira", "")

	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))
}

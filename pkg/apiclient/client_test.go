package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/pkg/web"
)

func TestLoginThenBearerRequests(t *testing.T) {
	t.Parallel()

	var sawBearer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "admin", creds["alias"])
			json.NewEncoder(w).Encode(map[string]string{"token": "session-jwt"})
		case "/api/v1/status":
			sawBearer = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(web.StatusResponse{Alive: true, Version: "1.2.3"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New(srv.URL)
	client.SetCredentials("admin", "secret-value")
	require.NoError(t, client.Login(context.Background()))

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Alive)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, "Bearer session-jwt", sawBearer)
}

func TestBasicCredentialsWithoutLogin(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		alias, secret, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "ci", alias)
		assert.Equal(t, "hunter22", secret)
		json.NewEncoder(w).Encode(web.TokensResponse{})
	}))
	defer srv.Close()

	client := New(srv.URL)
	client.SetCredentials("ci", "hunter22")

	tokens, err := client.ListTokens(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Status(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "invalid credentials")
}

func TestStatsPassesLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(web.StatsResponse{Total: 42})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Stats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), resp.Total)
}

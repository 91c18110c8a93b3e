package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/insta_check_server/config"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(&config.ScraperConfig{
		BaseURL:        srv.URL,
		Token:          "test-token",
		TimeoutSeconds: 5,
	})
	return client, srv
}

func TestExtractMutualFollows(t *testing.T) {
	followers := []Account{
		{Username: "alice"},
		{Username: "bob"},
		{Username: "carol"},
	}
	following := []Account{
		{Username: "carol"},
		{Username: "dave"},
		{Username: "alice"},
	}

	mutual := ExtractMutualFollows(followers, following)

	// 只保留两边都有的账号，顺序跟随关注列表
	require.Len(t, mutual, 2)
	assert.Equal(t, "carol", mutual[0].Username)
	assert.Equal(t, "alice", mutual[1].Username)
}

func TestExtractMutualFollows_NoDuplicates(t *testing.T) {
	followers := []Account{{Username: "alice"}}
	following := []Account{
		{Username: "alice"},
		{Username: "alice"},
	}

	mutual := ExtractMutualFollows(followers, following)
	assert.Len(t, mutual, 1)
}

func TestExtractMutualFollows_Empty(t *testing.T) {
	assert.Empty(t, ExtractMutualFollows(nil, nil))
	assert.Empty(t, ExtractMutualFollows([]Account{{Username: "a"}}, nil))
	assert.Empty(t, ExtractMutualFollows(nil, []Account{{Username: "a"}}))
}

func TestClassifyByPrivacy(t *testing.T) {
	accounts := []Account{
		{Username: "open1", IsPrivate: false},
		{Username: "locked1", IsPrivate: true},
		{Username: "open2", IsPrivate: false},
	}

	public, private := ClassifyByPrivacy(accounts)

	require.Len(t, public, 2)
	require.Len(t, private, 1)
	assert.Equal(t, "open1", public[0].Username)
	assert.Equal(t, "open2", public[1].Username)
	assert.Equal(t, "locked1", private[0].Username)
}

func TestClient_GetProfile(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/v1/profile", r.URL.Path)
		assert.Equal(t, "target_user", r.URL.Query().Get("username"))

		json.NewEncoder(w).Encode(Profile{
			Username:      "target_user",
			IsPrivate:     false,
			FollowerCount: 1234,
		})
	}))
	defer srv.Close()

	profile, err := client.GetProfile(context.Background(), "target_user")
	require.NoError(t, err)
	assert.Equal(t, "target_user", profile.Username)
	assert.Equal(t, 1234, profile.FollowerCount)
}

func TestClient_GetProfile_NotFound(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := client.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestClient_GetFollowers(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/followers", r.URL.Path)
		assert.Equal(t, "500", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode([]Account{
			{Username: "alice"},
			{Username: "bob", IsPrivate: true},
		})
	}))
	defer srv.Close()

	accounts, err := client.GetFollowers(context.Background(), "target", 500)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.True(t, accounts[1].IsPrivate)
}

func TestClient_GetProfilesBatch_SkipsFailures(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(Profile{Username: username})
	}))
	defer srv.Close()

	profiles, err := client.GetProfilesBatch(context.Background(), []string{"a", "broken", "b"})
	require.NoError(t, err)

	// broken 被跳过，其余保持原顺序
	require.Len(t, profiles, 2)
	assert.Equal(t, "a", profiles[0].Username)
	assert.Equal(t, "b", profiles[1].Username)
}

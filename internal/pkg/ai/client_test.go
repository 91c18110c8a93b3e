package ai

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

func TestClient_AnalyzeAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/classify", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "vision-1", req["model"])
		assert.Equal(t, "alice", req["username"])
		assert.Equal(t, "female", req["target_gender"])

		json.NewEncoder(w).Encode(Result{
			Gender:           "female",
			GenderConfidence: 0.92,
			PhotogenicGrade:  4,
			SkinVisibility:   "high",
		})
	}))
	defer srv.Close()

	client := NewClient(&config.AIConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Model:          "vision-1",
		TimeoutSeconds: 5,
	})

	result, err := client.AnalyzeAccount(context.Background(), &Input{
		Username:     "alice",
		TargetGender: "female",
	})
	require.NoError(t, err)
	assert.Equal(t, "female", result.Gender)
	assert.Equal(t, 0.92, result.GenderConfidence)
	assert.Equal(t, 4, result.PhotogenicGrade)
	assert.Equal(t, "high", result.SkinVisibility)
}

func TestClient_AnalyzeAccount_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(&config.AIConfig{BaseURL: srv.URL, TimeoutSeconds: 5})

	_, err := client.AnalyzeAccount(context.Background(), &Input{Username: "x", TargetGender: "male"})
	assert.Error(t, err)
}

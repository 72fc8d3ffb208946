package pipedrive

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestCreateOrganization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/organizations", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("api_token"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme", body["name"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success": true, "data": {"id": 77}}`))
	}))
	defer srv.Close()

	c := NewClient(testLogger(), srv.URL, "tok", 1, 2)

	id, err := c.CreateOrganization(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
}

func TestCreateDeal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/deals", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CLIC & COMPOST #42", body["title"])
		assert.Equal(t, "2", body["value"])
		assert.Equal(t, float64(77), body["org_id"])
		assert.Equal(t, float64(1), body["pipeline_id"])
		assert.Equal(t, float64(2), body["stage_id"])
		assert.Equal(t, "won", body["status"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "data": {"id": 501}}`))
	}))
	defer srv.Close()

	c := NewClient(testLogger(), srv.URL, "tok", 1, 2)

	id, err := c.CreateDeal(context.Background(), "CLIC & COMPOST #42", "2", 77)
	require.NoError(t, err)
	assert.Equal(t, int64(501), id)
}

func TestCreateDealRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success": false, "error": "invalid token"}`))
	}))
	defer srv.Close()

	c := NewClient(testLogger(), srv.URL, "bad", 1, 2)

	_, err := c.CreateDeal(context.Background(), "t", "1", 1)
	assert.Error(t, err)
}

func TestCreateOrganizationUnsuccessfulEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false}`))
	}))
	defer srv.Close()

	c := NewClient(testLogger(), srv.URL, "tok", 1, 2)

	_, err := c.CreateOrganization(context.Background(), "Acme")
	assert.Error(t, err)
}

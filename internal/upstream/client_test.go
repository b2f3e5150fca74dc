package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.UpstreamConfig{
		BaseURL:         srv.URL,
		APIKey:          "test-key",
		SubscriptionKey: "test-sub",
		SeasonID:        2026,
		RequestTimeout:  5 * time.Second,
		PageSize:        2,
	}, nil)
}

func TestAuthenticateSendsRawKey(t *testing.T) {
	var gotAuth, gotSub string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/apikey", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotSub = r.Header.Get("Ocp-Apim-Subscription-Key")
		_ = json.NewEncoder(w).Encode(map[string]string{"Token": "jwt-token", "ClientIDs": "42, 43"})
	}))

	require.NoError(t, c.ensureToken(context.Background()))
	assert.Equal(t, "test-key", gotAuth)
	assert.Equal(t, "test-sub", gotSub)
	assert.Equal(t, 42, c.ClientID())
	assert.Equal(t, "jwt-token", c.bearer())
}

func TestSessionsPaginates(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/apikey" {
			_ = json.NewEncoder(w).Encode(map[string]string{"Token": "jwt", "ClientIDs": "1"})
			return
		}
		require.Equal(t, "/sessions", r.URL.Path)
		require.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("pagenumber") {
		case "1":
			_ = json.NewEncoder(w).Encode(page[Session]{
				Results:    []Session{{ID: 1, Name: "Week 1 (1WK)"}, {ID: 2, Name: "Week 2 (1WK)"}},
				TotalCount: 3,
			})
		default:
			_ = json.NewEncoder(w).Encode(page[Session]{
				Results:    []Session{{ID: 3, Name: "Week 3 (1WK)"}},
				TotalCount: 3,
			})
		}
	}))

	sessions, err := c.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, int64(3), sessions[2].ID)
}

func TestSessionWeeksFromName(t *testing.T) {
	cal := models.NewSeasonCalendar(2026)

	assert.Equal(t, []int{1}, sessionWeeks(sessionInfo{name: "Week 1 (1WK)"}, cal))
	assert.Equal(t, []int{3}, sessionWeeks(sessionInfo{name: "ECA Week 3"}, cal))
	assert.Equal(t, []int{2, 3, 4, 5}, sessionWeeks(sessionInfo{name: "Theater Camp Weeks 2-5"}, cal))
	assert.Equal(t, []int{1, 2, 3, 4}, sessionWeeks(sessionInfo{name: "Teeny Tiny Tnuah - Full Session"}, cal))
}

func TestSessionWeeksFromDates(t *testing.T) {
	cal := models.NewSeasonCalendar(2026)

	// Exact week start.
	assert.Equal(t, []int{2}, sessionWeeks(sessionInfo{name: "Custom Session", startDate: "2026-06-15T13:00:00+00:00"}, cal))
	// Two days of slack around the week start.
	assert.Equal(t, []int{2}, sessionWeeks(sessionInfo{name: "Custom Session", startDate: "2026-06-14"}, cal))
	// Sort order as last resort.
	assert.Equal(t, []int{4}, sessionWeeks(sessionInfo{name: "Mystery", sortOrder: 4}, cal))
	// Nothing resolvable.
	assert.Nil(t, sessionWeeks(sessionInfo{name: "Mystery"}, cal))
}

func TestParseISODate(t *testing.T) {
	assert.Equal(t, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), parseISODate("2026-06-15T13:00:00+00:00"))
	assert.True(t, parseISODate("garbage").IsZero())
	assert.True(t, parseISODate("").IsZero())
}

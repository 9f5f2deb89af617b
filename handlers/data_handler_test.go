package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/globizora/api-service/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetData(t *testing.T) {
	users := store.NewMemoryStore()
	id := seedUser(t, users, "alice", "alice@example.com", "secret1")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	h := &DataHandler{
		Store:  users,
		Random: func() float64 { return 0.4231 },
		Now:    func() time.Time { return now },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /data/{symbol}", h.GetData)

	for want := int64(1); want <= 2; want++ {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/data/btc", nil), id))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "BTC", body["symbol"])
		assert.Equal(t, "42.31", body["value"])
		assert.Equal(t, "infrastructure analytics", body["category"])
		assert.Equal(t, "down", body["trend"])
		assert.Equal(t, float64(want), body["usage"])
		assert.Equal(t, now.Format(time.RFC3339), body["timestamp"])
	}
}

func TestGetDataUnknownUser(t *testing.T) {
	h := &DataHandler{Store: store.NewMemoryStore()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /data/{symbol}", h.GetData)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/data/eth", nil), "ghost"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDataDefaults(t *testing.T) {
	users := store.NewMemoryStore()
	id := seedUser(t, users, "alice", "alice@example.com", "secret1")
	h := &DataHandler{Store: users}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /data/{symbol}", h.GetData)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/data/sol", nil), id))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Contains(t, []any{"up", "down"}, body["trend"])
	assert.Regexp(t, `^\d{1,3}\.\d{2}$`, body["value"])
}

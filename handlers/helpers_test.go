package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	middleware "github.com/globizora/api-service/middlewares"
	"github.com/globizora/api-service/store"
	"github.com/globizora/api-service/utils"
	"github.com/stretchr/testify/require"
)

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seedUser(t *testing.T, users *store.MemoryStore, username, email, password string) string {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	u, err := users.Create(context.Background(), username, email, hash)
	require.NoError(t, err)
	return u.ID
}

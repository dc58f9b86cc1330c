package api

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/jotterapp/jotter-server/internal/auth"
	"github.com/jotterapp/jotter-server/internal/service"
	"github.com/jotterapp/jotter-server/internal/store/sqlite"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer creates a test server backed by a temp database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		7*24*time.Hour,
	)
	require.NoError(t, err)

	services := &Services{
		Auth: service.NewAuthService(st, tokenService, logger),
		Note: service.NewNoteService(st, logger),
	}

	s := NewServer(st, services, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// registerAndLogin creates a user and returns a live token pair.
func (ts *testServer) registerAndLogin(t *testing.T, email string) TokenPairResponse {
	t.Helper()

	resp := ts.api.Post("/auth/register", map[string]any{
		"email":    email,
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	resp = ts.api.Post("/auth/login", map[string]any{
		"email":    email,
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())

	var pair TokenPairResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &pair))
	return pair
}

// createNote creates a note and returns its ID.
func (ts *testServer) createNote(t *testing.T, token, title string, tags ...string) string {
	t.Helper()

	body := map[string]any{"title": title}
	if len(tags) > 0 {
		body["tags"] = tags
	}

	resp := ts.api.Post("/notes", body, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "create note failed: %s", resp.Body.String())

	var created CreateNoteResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

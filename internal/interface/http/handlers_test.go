package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/codetrack-hub/codetrack-backend/config"
	"github.com/codetrack-hub/codetrack-backend/internal/application/command"
	"github.com/codetrack-hub/codetrack-backend/internal/application/query"
)

// testServer wires the real application handlers to in-memory stores.
func testServer(t *testing.T, authCfg config.AuthConfig) *Server {
	t.Helper()

	registry := newMemRegistry()
	directory := newMemDirectory(registry)
	statsStore := newMemStatsStore(directory)
	ledger := newMemLedger()

	deps := Dependencies{
		EnsureGroup:   command.NewEnsureGroupHandler(registry),
		EnsureStats:   command.NewEnsureStatsHandler(registry),
		UpsertStudent: command.NewUpsertStudentHandler(directory, nil),
		SyncGroup: command.NewSyncGroupHandler(
			registry, directory, statsStore, ledger, stubProvider{},
			nil, nil, command.SyncGroupConfig{}, nil),
		AddNotification:    command.NewAddNotificationHandler(registry, directory, ledger),
		RemoveNotification: command.NewRemoveNotificationHandler(ledger),
		GroupData:          query.NewGetGroupDataHandler(registry, statsStore, nil),
		ListGroups:         query.NewListGroupsHandler(registry),
		LastUpdate:         query.NewLastUpdateHandler(registry),
		ListNotifications:  query.NewListNotificationsHandler(ledger),
	}

	cfg := config.HTTPConfig{Host: "127.0.0.1", Port: 0, EnableCORS: true, AllowedOrigins: []string{"*"}}
	return NewServer(cfg, authCfg, deps)
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestAddTableLifecycle(t *testing.T) {
	s := testServer(t, config.AuthConfig{})

	rec := doJSON(t, s, http.MethodPost, "/addtable", map[string]string{"table_name": "cs23"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/addtable", map[string]string{"table_name": "cs23"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decodeMap(t, rec)["error"], "already exists")
}

func TestAddTableRejectsBadName(t *testing.T) {
	s := testServer(t, config.AuthConfig{})

	rec := doJSON(t, s, http.MethodPost, "/addtable", map[string]string{"table_name": "drop table"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddDataTableLifecycle(t *testing.T) {
	s := testServer(t, config.AuthConfig{})

	rec := doJSON(t, s, http.MethodPost, "/addDataTable", map[string]string{"table_name": "cs23"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, decodeMap(t, rec)["message"], "cs23_Data")

	rec = doJSON(t, s, http.MethodPost, "/addDataTable", map[string]string{"table_name": "cs23"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddStudentRequiresGroup(t *testing.T) {
	s := testServer(t, config.AuthConfig{})

	rec := doJSON(t, s, http.MethodPost, "/add", map[string]any{
		"table_name": "ghosts", "rollnumber": 1, "name": "A",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddStudentCreated(t *testing.T) {
	s := testServer(t, config.AuthConfig{})
	doJSON(t, s, http.MethodPost, "/addtable", map[string]string{"table_name": "cs23"})

	rec := doJSON(t, s, http.MethodPost, "/add", map[string]any{
		"table_name": "cs23", "rollnumber": 7, "name": "Ada",
		"github_username": "ada",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 7, decodeMap(t, rec)["rollnumber"])
}

func TestDataEndpoint(t *testing.T) {
	s := testServer(t, config.AuthConfig{})
	doJSON(t, s, http.MethodPost, "/addtable", map[string]string{"table_name": "cs23"})
	doJSON(t, s, http.MethodPost, "/addDataTable", map[string]string{"table_name": "cs23"})
	doJSON(t, s, http.MethodPost, "/add", map[string]any{
		"table_name": "cs23", "rollnumber": 1, "name": "A", "github_username": "a",
	})

	rec := doJSON(t, s, http.MethodPost, "/data", map[string]string{"table_name": "cs23"})
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0]["name"])
	assert.Nil(t, rows[0]["lc_total_solved"], "unsynced student has nil stats fields")
}

func TestDataEndpointUnknownGroup(t *testing.T) {
	s := testServer(t, config.AuthConfig{})

	rec := doJSON(t, s, http.MethodPost, "/data", map[string]string{"table_name": "ghosts"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDataEndpointStatsNotEnabled(t *testing.T) {
	s := testServer(t, config.AuthConfig{})
	doJSON(t, s, http.MethodPost, "/addtable", map[string]string{"table_name": "cs23"})

	rec := doJSON(t, s, http.MethodPost, "/data", map[string]string{"table_name": "cs23"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEndpoint(t *testing.T) {
	s := testServer(t, config.AuthConfig{})
	doJSON(t, s, http.MethodPost, "/addtable", map[string]string{"table_name": "cs23"})
	doJSON(t, s, http.MethodPost, "/addDataTable", map[string]string{"table_name": "cs23"})
	doJSON(t, s, http.MethodPost, "/add", map[string]any{
		"table_name": "cs23", "rollnumber": 1, "name": "A", "github_username": "a",
	})

	rec := doJSON(t, s, http.MethodPost, "/update", map[string]string{"table_name": "cs23"})
	require.Equal(t, http.StatusOK, rec.Code)

	m := decodeMap(t, rec)
	assert.Equal(t, "cs23", m["source_table"])
	assert.Equal(t, "cs23_Data", m["target_table"])
	assert.EqualValues(t, 1, m["updated"])
	assert.Empty(t, m["errors"])
}

func TestNotificationEndpoints(t *testing.T) {
	s := testServer(t, config.AuthConfig{})
	doJSON(t, s, http.MethodPost, "/addtable", map[string]string{"table_name": "cs23"})
	doJSON(t, s, http.MethodPost, "/add", map[string]any{
		"table_name": "cs23", "rollnumber": 5, "name": "Alan",
	})

	// Flagging an unknown roll is the caller's mistake.
	rec := doJSON(t, s, http.MethodPost, "/addNotif", map[string]any{
		"table_name": "cs23", "rollnumber": 99, "reason": "r",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/addNotif", map[string]any{
		"table_name": "cs23", "rollnumber": 5, "reason": "missed review",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Alan", decodeMap(t, rec)["name"])

	rec = doJSON(t, s, http.MethodGet, "/showNotif", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "missed review", list[0]["reason"])

	rec = doJSON(t, s, http.MethodPost, "/removeNotif", map[string]any{
		"table_name": "cs23", "rollnumber": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeMap(t, rec)["removed"])

	rec = doJSON(t, s, http.MethodPost, "/removeNotif", map[string]any{
		"table_name": "cs23", "rollnumber": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decodeMap(t, rec)["removed"])
}

func TestAvailableEndpoint(t *testing.T) {
	s := testServer(t, config.AuthConfig{})
	doJSON(t, s, http.MethodPost, "/addtable", map[string]string{"table_name": "zeta"})
	doJSON(t, s, http.MethodPost, "/addtable", map[string]string{"table_name": "alpha"})

	rec := doJSON(t, s, http.MethodGet, "/available", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, []string{"alpha", "zeta"}, payload["tables"])
}

func TestLastUpdateEndpoint(t *testing.T) {
	s := testServer(t, config.AuthConfig{})
	doJSON(t, s, http.MethodPost, "/addDataTable", map[string]string{"table_name": "cs23"})
	doJSON(t, s, http.MethodPost, "/add", map[string]any{
		"table_name": "cs23", "rollnumber": 1, "name": "A", "github_username": "a",
	})

	// Provisioned but never synced, so the payload stays empty.
	rec := doJSON(t, s, http.MethodGet, "/lastUpdate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Empty(t, entries)

	doJSON(t, s, http.MethodPost, "/update", map[string]string{"table_name": "cs23"})

	rec = doJSON(t, s, http.MethodGet, "/lastUpdate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "cs23", entries[0]["table_name"])
	assert.NotEmpty(t, entries[0]["changed_at"])
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t, config.AuthConfig{})

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPasswordGate(t *testing.T) {
	s := testServer(t, config.AuthConfig{Password: "s3cret"})

	rec := doJSON(t, s, http.MethodGet, "/available", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/available?password=wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/available?password=s3cret", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open for probes.
	rec = doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPasswordGateBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	// The hash takes precedence over the plain password when both are set.
	s := testServer(t, config.AuthConfig{
		Password:           "plain-secret",
		PasswordBcryptHash: string(hash),
	})

	rec := doJSON(t, s, http.MethodGet, "/available", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/available?password=plain-secret", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/available?password=s3cret", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidJSONBody(t *testing.T) {
	s := testServer(t, config.AuthConfig{})

	req := httptest.NewRequest(http.MethodPost, "/addtable", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := testServer(t, config.AuthConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/data", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDHeader(t *testing.T) {
	s := testServer(t, config.AuthConfig{})

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "given-id")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "given-id", rec.Header().Get("X-Request-ID"))
}

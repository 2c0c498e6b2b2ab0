package controlplane

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/hogar/internal/board"
	"github.com/fentz26/hogar/internal/models"
	"github.com/fentz26/hogar/internal/roster"
	"github.com/fentz26/hogar/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc, _ := newTestService(t)
	return NewServer(svc, "127.0.0.1:0", quietLogger())
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint_OK(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.True(t, health.OK)
	assert.Equal(t, "ok", health.Store)
	assert.NotEmpty(t, health.Version)
	assert.NotEmpty(t, health.Time)
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthEndpoint_DBError(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	r, _ := roster.New(roster.Default())
	svc := NewService(st, r, Options{Policy: board.DefaultPolicy(), Timeslots: testSlots, Logger: quietLogger()})
	s := NewServer(svc, "127.0.0.1:0", quietLogger())

	// Close the store to simulate DB error
	st.Close()

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.False(t, health.OK)
	assert.NotEqual(t, "ok", health.Store)
}

func TestServerAssignAndList(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/tasks/2/assign", map[string]string{"user": "Cris", "timeslot": "Tarde"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var a board.Assignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, 5, a.TaskID)

	rec = do(t, s, http.MethodGet, "/tasks?user=Cris&view=mine", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "Laundry Load", mine[0].Name)

	// Owner and slot travel as plain text on the wire.
	assert.Contains(t, rec.Body.String(), `"owner":"Cris"`)

	rec = do(t, s, http.MethodGet, "/tasks?view=all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"owner":"Unassigned"`)

	rec = do(t, s, http.MethodPost, "/tasks/5/complete", map[string]string{"user": "Cris"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/tasks?user=Cris&view=mine&status=done", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)
}

func TestServerErrorMapping(t *testing.T) {
	s := newTestServer(t)

	// Exhaust the dog walk.
	rec := do(t, s, http.MethodPost, "/tasks/3/assign", map[string]string{"user": "Cris", "timeslot": "Mañana"})
	require.Equal(t, http.StatusOK, rec.Code)

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"closed template", http.MethodPost, "/tasks/3/assign", map[string]string{"user": "María", "timeslot": "Tarde"}, http.StatusConflict},
		{"unknown task", http.MethodPost, "/tasks/99/assign", map[string]string{"user": "María", "timeslot": "Tarde"}, http.StatusNotFound},
		{"unknown user", http.MethodGet, "/summary?user=Pedro", nil, http.StatusNotFound},
		{"bad slot", http.MethodPost, "/tasks/1/assign", map[string]string{"user": "María", "timeslot": "Siesta"}, http.StatusBadRequest},
		{"bad id", http.MethodPost, "/tasks/abc/assign", map[string]string{"user": "María"}, http.StatusBadRequest},
		{"not admin", http.MethodPost, "/day/reset", map[string]string{"user": "Cris"}, http.StatusForbidden},
		{"not owner", http.MethodPost, "/tasks/5/release", map[string]string{"user": "Jesús"}, http.StatusForbidden},
		{"invalid template", http.MethodPost, "/tasks", map[string]interface{}{"user": "Papá", "name": "x", "recurrence": "weekly", "kind": "simple", "audience": "todos"}, http.StatusBadRequest},
		{"stock both", http.MethodPost, "/tasks/2/stock", map[string]interface{}{"user": "Papá", "delta": 1, "set": 2}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/tasks/1/complete", map[string]string{"who": "Cris"}, http.StatusBadRequest},
		{"bad view", http.MethodGet, "/tasks?user=Cris&view=sideways", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestServerAdminFlow(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/tasks", map[string]interface{}{
		"user": "Mamá", "name": "Tender ropa", "recurrence": "Puntual", "kind": "Contador", "audience": "Hijos", "stock": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var task models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, models.KindCounter, task.Kind)
	assert.Equal(t, models.AudienceGroupB, task.Audience)

	rec = do(t, s, http.MethodPost, "/tasks/5/stock", map[string]interface{}{"user": "Mamá", "delta": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, 3, task.Stock)

	rec = do(t, s, http.MethodGet, "/day/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var preview ResetResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, 1, preview.Pruned)

	rec = do(t, s, http.MethodPost, "/day/reset", map[string]string{"user": "Mamá"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/history?user=Mamá&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/roster", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "María")

	rec = do(t, s, http.MethodGet, "/timeslots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Mañana","Mediodía","Tarde","Noche"]`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

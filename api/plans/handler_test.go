package plans

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/roster/app"
	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/core/roster"
	"github.com/kilianp07/roster/core/store"
	"github.com/kilianp07/roster/infra/logger"
	"github.com/kilianp07/roster/pkg/export"
)

const body = `{
  "dates": ["2025-03-07", "2025-03-08"],
  "drivers": [
    {"id": "a", "name": "Anna", "monthly_hours": "40:00"},
    {"id": "k", "name": "Klagenfurt - Samstagsfahrer", "monthly_hours": 20}
  ],
  "routes": [
    {"name": "451FR", "date": "2025-03-07", "duration": "8:30"},
    {"name": "452SA", "date": "2025-03-08", "duration": "7:00"}
  ],
  "rules": [{"driver": "k", "route": "452SA", "priority": 1, "weekday": "saturday"}]
}`

func newHandler(t *testing.T, src store.Source, token string) http.Handler {
	t.Helper()
	svc, err := app.NewWithDeps(roster.DefaultConfig(), app.Deps{Source: src, Log: logger.NopLogger{}})
	require.NoError(t, err)
	return NewHandler(svc, Options{Token: token})
}

func TestCreatePlan(t *testing.T) {
	h := newHandler(t, nil, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var doc export.Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	require.Len(t, doc.Assignments, 2)
	assert.Equal(t, "8:30", doc.Assignments[0].Hours)
	assert.Equal(t, "k", doc.Assignments[1].DriverID)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/plans/"+doc.ID+"?format=grid", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	recs, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"driver", "2025-03-07", "2025-03-08"}, recs[0])
	assert.Len(t, recs, 3)
}

func TestCreatePlan_InvalidInput(t *testing.T) {
	h := newHandler(t, nil, "")
	bad := strings.Replace(body, `"duration": "7:00"`, `"duration": "0:00"`, 1)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(bad)))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var out errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.NotEmpty(t, out.Details)
	assert.Contains(t, strings.Join(out.Details, "\n"), "452SA")
}

func TestCreatePlan_BadJSON(t *testing.T) {
	h := newHandler(t, nil, "")
	tests := map[string]string{
		"syntax":  "{",
		"unknown": `{"shifts": []}`,
		"hours":   `{"drivers": [{"id": "a", "monthly_hours": "x"}]}`,
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(b)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestWindow(t *testing.T) {
	var gotFrom, gotTo model.Date
	src := store.SourceFunc(func(_ context.Context, from, to model.Date) (model.Input, error) {
		gotFrom, gotTo = from, to
		return model.Input{}, nil
	})
	h := newHandler(t, src, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plans/window?from=2025-03-01&to=2025-03-31&format=text", nil))
	// An empty horizon is rejected by the engine.
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, model.NewDate(2025, 3, 1), gotFrom)
	assert.Equal(t, model.NewDate(2025, 3, 31), gotTo)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plans/window?from=March", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWindow_NoSource(t *testing.T) {
	h := newHandler(t, nil, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plans/window", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestGetPlan_NotFound(t *testing.T) {
	h := newHandler(t, nil, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/plans/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnknownFormat(t *testing.T) {
	h := newHandler(t, nil, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plans?format=xml", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuth(t *testing.T) {
	h := newHandler(t, nil, "secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHandler(t, nil, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestListPlans(t *testing.T) {
	h := newHandler(t, nil, "")
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/plans?limit=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []store.PlanSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Assigned)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/plans?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEvents(t *testing.T) {
	srv := httptest.NewServer(newHandler(t, nil, ""))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/plans/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, ": connected", lines.Text())

	post, err := http.Post(srv.URL+"/api/plans", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	var doc export.Document
	require.NoError(t, json.NewDecoder(post.Body).Decode(&doc))
	_ = post.Body.Close()

	var got []string
	for len(got) < 3 && lines.Scan() {
		if lines.Text() != "" {
			got = append(got, lines.Text())
		}
	}
	require.Len(t, got, 3)
	assert.Equal(t, "id: "+doc.ID, got[0])
	assert.Equal(t, "event: plan", got[1])
	var ev store.PlanSummary
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(got[2], "data: ")), &ev))
	assert.Equal(t, doc.ID, ev.ID)
	assert.Equal(t, 2, ev.Assigned)
}

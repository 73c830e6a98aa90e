package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/roster/core/metrics"
)

func TestPushSink(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		pushes int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		method, path = r.Method, r.URL.Path
		pushes++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewPushSink(srv.URL, "")
	require.NoError(t, err)
	require.NoError(t, sink.RecordPlan(coremetrics.PlanEvent{PlanID: "p1", Plan: samplePlan(), Time: time.Now()}))
	require.NoError(t, sink.RecordPlanFailure(coremetrics.FailureEvent{Reason: coremetrics.ReasonSolver}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, pushes)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/roster", path)
}

func TestPushSink_Errors(t *testing.T) {
	_, err := NewPushSink("", "job")
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	sink, err := NewPushSink(srv.URL, "nightly")
	require.NoError(t, err)
	assert.Error(t, sink.RecordPlanFailure(coremetrics.FailureEvent{Reason: "other"}))
}

func TestPushSink_Registered(t *testing.T) {
	assert.Contains(t, coremetrics.SinkTypes(), "pushgateway")
}

// Package plans exposes planning runs over HTTP.
package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/core/roster"
	"github.com/kilianp07/roster/core/store"
	"github.com/kilianp07/roster/infra/scenario"
	"github.com/kilianp07/roster/pkg/export"
)

// Planner is the service behind the handlers.
type Planner interface {
	Plan(ctx context.Context, from, to model.Date) (export.Document, error)
	RunInput(ctx context.Context, in model.Input) (export.Document, error)
	GetPlan(ctx context.Context, id string) (export.Document, error)
	ListPlans(ctx context.Context, limit int) ([]store.PlanSummary, error)
	Subscribe() <-chan store.PlanSummary
	Unsubscribe(ch <-chan store.PlanSummary)
}

// Options tune the handler.
type Options struct {
	// Token, when set, must be sent as "Authorization: Bearer <token>".
	Token        string
	MaxBodyBytes int64
	Scenario     scenario.Options
}

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// NewHandler routes:
//
//	POST /api/plans           plan the scenario document in the body
//	POST /api/plans/window    plan ?from=&to= from the configured source
//	GET  /api/plans           list stored plans, newest first (?limit=)
//	GET  /api/plans/events    server-sent events, one per committed plan
//	GET  /api/plans/{id}      fetch a stored plan
//	GET  /healthz
//	GET  /metrics
//
// Plan responses honour ?format=json|csv|grid|text.
func NewHandler(p Planner, opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 4 << 20
	}
	if opts.Scenario.DefaultDuration <= 0 {
		opts.Scenario = scenario.DefaultOptions()
	}
	mux := http.NewServeMux()
	mux.Handle("POST /api/plans", auth(opts.Token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var f scenario.File
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		doc, err := p.RunInput(r.Context(), f.Input(opts.Scenario))
		respond(w, r, doc, err)
	})))
	mux.Handle("POST /api/plans/window", auth(opts.Token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from, err := queryDate(r, "from")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		to, err := queryDate(r, "to")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		doc, err := p.Plan(r.Context(), from, to)
		respond(w, r, doc, err)
	})))
	mux.Handle("GET /api/plans", auth(opts.Token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
				return
			}
			limit = n
		}
		list, err := p.ListPlans(r.Context(), limit)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if list == nil {
			list = []store.PlanSummary{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	})))
	mux.Handle("GET /api/plans/events", auth(opts.Token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streamEvents(w, r, p)
	})))
	mux.Handle("GET /api/plans/{id}", auth(opts.Token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, err := p.GetPlan(r.Context(), r.PathValue("id"))
		respond(w, r, doc, err)
	})))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func streamEvents(w http.ResponseWriter, r *http.Request, p Planner) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	events := p.Subscribe()
	defer p.Unsubscribe(events)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: plan\ndata: %s\n\n", ev.ID, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func auth(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func queryDate(r *http.Request, key string) (model.Date, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return model.Date{}, nil
	}
	return model.ParseDate(s)
}

func respond(w http.ResponseWriter, r *http.Request, doc export.Document, err error) {
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	format := r.URL.Query().Get("format")
	switch format {
	case export.FormatCSV, export.FormatGrid:
		w.Header().Set("Content-Type", "text/csv")
	case export.FormatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	case "", export.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown format "+format))
		return
	}
	if err := export.Write(w, format, doc); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, roster.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNoSource), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	body := errorBody{Error: err.Error()}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		body.Error = http.StatusText(code)
		for _, e := range joined.Unwrap() {
			body.Details = append(body.Details, e.Error())
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

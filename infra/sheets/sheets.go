// Package sheets pushes committed assignments to the shared planning sheet
// through its HTTP update function.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/roster/auth"
	"github.com/kilianp07/roster/core/factory"
	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/core/notify"
	"github.com/kilianp07/roster/infra/logger"
	"github.com/kilianp07/roster/pkg/export"
)

// Statuses written to the sheet.
const (
	StatusAssigned   = "assigned"
	StatusUnassigned = "unassigned"
)

// Row is one line of the update payload.
type Row struct {
	Driver        string `json:"driver"`
	Route         string `json:"route"`
	Hour          string `json:"hour"`
	RemainingHour string `json:"remaining_hour"`
	Date          string `json:"date"`
	Status        string `json:"status"`
}

// Payload is the body accepted by the update function.
type Payload struct {
	Drivers []Row `json:"drivers"`
}

// Rows flattens doc into sheet rows. RemainingHour is the driver's balance
// after the row's assignment, in plan order.
func Rows(doc export.Document, includeUnassigned bool) ([]Row, error) {
	names := make(map[string]string, len(doc.Drivers))
	left := make(map[string]time.Duration, len(doc.Drivers))
	for _, d := range doc.Drivers {
		names[d.DriverID] = d.Name
		budget, err := model.ParseHours(d.Budget)
		if err != nil {
			return nil, fmt.Errorf("driver %s budget: %w", d.DriverID, err)
		}
		left[d.DriverID] = budget
	}
	rows := make([]Row, 0, len(doc.Assignments))
	for _, a := range doc.Assignments {
		hours, err := model.ParseHours(a.Hours)
		if err != nil {
			return nil, fmt.Errorf("assignment %s: %w", a.RouteID, err)
		}
		left[a.DriverID] -= hours
		name := names[a.DriverID]
		if name == "" {
			name = a.DriverID
		}
		rows = append(rows, Row{
			Driver:        name,
			Route:         a.Route,
			Hour:          a.Hours,
			RemainingHour: model.FormatHours(left[a.DriverID]),
			Date:          a.Date.String(),
			Status:        StatusAssigned,
		})
	}
	if includeUnassigned {
		for _, r := range doc.Unassigned {
			rows = append(rows, Row{Route: r.Name, Hour: r.Hours, Date: r.Date.String(), Status: StatusUnassigned})
		}
	}
	return rows, nil
}

// Config configures a Publisher.
type Config struct {
	URL               string        `json:"url"`
	Token             string        `json:"token"`
	Timeout           time.Duration `json:"timeout"`
	MaxRetries        int           `json:"max_retries"`
	RetryDelay        time.Duration `json:"retry_delay"`
	IncludeUnassigned bool          `json:"include_unassigned"`
	// OAuth replaces Token with client-credential tokens when set.
	OAuth auth.Conf `json:"oauth"`
}

// Publisher posts plans to the sheet update function.
type Publisher struct {
	cfg    Config
	client *http.Client
	creds  *auth.ClientCred
	log    logger.Logger
}

// NewPublisher validates cfg and applies defaults: 30s timeout, 3 retries
// and a 500ms initial delay doubled after each failure.
func NewPublisher(cfg Config, log logger.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("sheets: url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	p := &Publisher{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, log: log}
	if cfg.OAuth.Enabled() {
		p.creds = auth.NewClientCred(cfg.OAuth)
	}
	return p, nil
}

// Notify implements notify.Notifier.
func (p *Publisher) Notify(ctx context.Context, doc export.Document) error {
	rows, err := Rows(doc, p.cfg.IncludeUnassigned)
	if err != nil {
		return err
	}
	body, err := json.Marshal(Payload{Drivers: rows})
	if err != nil {
		return err
	}
	p.log.Infof("Sending %d rows of plan %s to sheet", len(rows), doc.ID)

	delay := p.cfg.RetryDelay
	for attempt := 1; ; attempt++ {
		err = p.post(ctx, body)
		if err == nil {
			return nil
		}
		if attempt >= p.cfg.MaxRetries {
			return fmt.Errorf("sheets: update failed after %d attempts: %w", attempt, err)
		}
		p.log.Warnf("sheet update attempt %d failed: %v", attempt, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return fmt.Sprintf("http %d: %s", e.code, e.body) }

func (p *Publisher) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case p.creds != nil:
		if err := p.creds.SetAuthHeader(ctx, req); err != nil {
			return err
		}
	case p.cfg.Token != "":
		req.Header.Set("Authorization", "Bearer "+p.cfg.Token)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusUnauthorized && p.creds != nil {
		p.creds.Invalidate()
	}
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Ping checks that the update function answers a GET with 200.
func (p *Publisher) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

func init() {
	_ = notify.Register("sheets", func(conf map[string]any) (notify.Notifier, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c, logger.New("sheets"))
	})
}

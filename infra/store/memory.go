package store

import (
	"context"
	"sort"
	"sync"

	corestore "github.com/kilianp07/roster/core/store"
	"github.com/kilianp07/roster/pkg/export"
)

// Memory keeps plans in process memory. It is used when no database is
// configured.
type Memory struct {
	mu    sync.RWMutex
	plans map[string]export.Document
}

func NewMemory() *Memory {
	return &Memory{plans: map[string]export.Document{}}
}

func (m *Memory) SavePlan(ctx context.Context, doc export.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[doc.ID] = doc
	return nil
}

func (m *Memory) GetPlan(ctx context.Context, id string) (export.Document, error) {
	if err := ctx.Err(); err != nil {
		return export.Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.plans[id]
	if !ok {
		return export.Document{}, corestore.ErrNotFound
	}
	return doc, nil
}

func (m *Memory) ListPlans(ctx context.Context, limit int) ([]corestore.PlanSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = corestore.DefaultListLimit
	}
	m.mu.RLock()
	out := make([]corestore.PlanSummary, 0, len(m.plans))
	for _, doc := range m.plans {
		out = append(out, corestore.Summarize(doc))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ corestore.PlanStore = (*Memory)(nil)
	_ corestore.PlanStore = (*Postgres)(nil)
	_ corestore.Source    = (*Postgres)(nil)
)

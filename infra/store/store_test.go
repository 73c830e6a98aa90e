package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/roster/core/model"
	corestore "github.com/kilianp07/roster/core/store"
	"github.com/kilianp07/roster/pkg/export"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.GetPlan(ctx, "nope")
	assert.ErrorIs(t, err, corestore.ErrNotFound)

	doc := export.Document{ID: "p1", Assignments: []export.Assignment{{DriverID: "a", RouteID: "r1", Hours: "8:00"}}}
	require.NoError(t, m.SavePlan(ctx, doc))
	got, err := m.GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.SavePlan(cctx, doc), context.Canceled)
}

func TestMemory_ListPlans(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.SavePlan(ctx, export.Document{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}
	list, err := m.ListPlans(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestHorizon(t *testing.T) {
	d := func(day int) model.Date { return model.NewDate(2025, time.March, day) }
	routes := []model.Route{{Date: d(5)}, {Date: d(3)}, {Date: d(4)}}

	tests := []struct {
		name     string
		from, to model.Date
		want     []model.Date
	}{
		{"bounded", d(1), d(2), model.DateRange(d(1), d(2))},
		{"open", model.Date{}, model.Date{}, model.DateRange(d(3), d(5))},
		{"open end", d(2), model.Date{}, model.DateRange(d(2), d(5))},
		{"open start", model.Date{}, d(6), model.DateRange(d(3), d(6))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, horizon(tt.from, tt.to, routes))
		})
	}
	assert.Nil(t, horizon(model.Date{}, model.Date{}, nil))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, int64(510), minutes(8*time.Hour+30*time.Minute))
	assert.Nil(t, nullDate(model.Date{}))
	assert.Equal(t, model.NewDate(2025, 3, 8).Time(), nullDate(model.NewDate(2025, 3, 8)))
	assert.Equal(t, "1900-01-01", bound(model.Date{}, "1900-01-01"))
	assert.Equal(t, "2025-03-08", bound(model.NewDate(2025, 3, 8), "x"))
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corestore "github.com/kilianp07/roster/core/store"
	"github.com/kilianp07/roster/pkg/export"
)

func TestSQLite_SaveGetList(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	older := export.Document{ID: "p1", CreatedAt: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		Assignments: []export.Assignment{{DriverID: "k", RouteID: "r1", Route: "452SA", Hours: "6:00", Origin: "fixed"}}}
	newer := export.Document{ID: "p2", CreatedAt: older.CreatedAt.Add(time.Hour),
		Unassigned: []export.Route{{ID: "r2", Name: "453", Hours: "8:00"}}}
	require.NoError(t, s.SavePlan(ctx, older))
	require.NoError(t, s.SavePlan(ctx, newer))

	got, err := s.GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, older.Assignments, got.Assignments)
	assert.True(t, older.CreatedAt.Equal(got.CreatedAt))

	list, err := s.ListPlans(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID)
	assert.Equal(t, 1, list[0].Unassigned)
	assert.Equal(t, 1, list[1].Assigned)

	list, err = s.ListPlans(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = s.GetPlan(ctx, "missing")
	assert.ErrorIs(t, err, corestore.ErrNotFound)
}

func TestSQLite_Replace(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	doc := export.Document{ID: "p1", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.SavePlan(ctx, doc))
	doc.Assignments = []export.Assignment{{DriverID: "a", RouteID: "r", Hours: "1:00"}}
	require.NoError(t, s.SavePlan(ctx, doc))

	list, err := s.ListPlans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Assigned)
}

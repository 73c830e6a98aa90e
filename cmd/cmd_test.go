package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/infra/scenario"
)

const week = `
from: 2025-03-07
to: 2025-03-08
drivers:
  - {id: a, name: Anna, monthly_hours: "40:00"}
  - {id: k, name: Klagenfurt, monthly_hours: "20:00"}
routes:
  - {name: 451FR, date: 2025-03-07, duration: "8:30"}
  - {name: 452SA, date: 2025-03-08, duration: "7:00"}
rules:
  - {driver: k, route: 452SA, priority: 1, weekday: saturday}
`

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "week.yaml")
	require.NoError(t, os.WriteFile(input, []byte(week), 0o600))
	out := filepath.Join(dir, "grid.csv")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"plan", "-c", filepath.Join(dir, "missing.yaml"), "--input", input})
	err := rootCmd.Execute()
	require.Error(t, err, "an explicit missing config must fail")

	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("logging:\n  level: warn\n"), 0o600))
	rootCmd.SetArgs([]string{"plan", "-c", cfg, "--input", input, "--format", "grid", "--output", out})
	require.NoError(t, rootCmd.Execute())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "driver,2025-03-07,2025-03-08", lines[0])
	assert.Equal(t, "Klagenfurt,,452SA", lines[2])
}

func TestParseWindow(t *testing.T) {
	from, to, err := parseWindow("2025-03-01", "")
	require.NoError(t, err)
	assert.Equal(t, model.NewDate(2025, 3, 1), from)
	assert.True(t, to.IsZero())

	_, _, err = parseWindow("", "31.03.2025")
	assert.Error(t, err)
}

func TestGenerateCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "gen.yaml")
	rootCmd.SetArgs([]string{"generate", "--from", "2025-03-03", "--to", "2025-03-09",
		"--drivers", "4", "--routes-per-day", "2", "--seed", "3", "-o", out})
	require.NoError(t, rootCmd.Execute())

	f, err := scenario.Load(out)
	require.NoError(t, err)
	assert.Len(t, f.Drivers, 4)
	assert.Len(t, f.Routes, 14)
	assert.Equal(t, "generated-3", f.Name)
}

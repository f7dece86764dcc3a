package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spendbook/internal/config"
	"spendbook/internal/core"
	applog "spendbook/internal/log"
	"spendbook/internal/storage"
)

func TestWriteReport(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		{ID: "1", Title: "rent", Amount: core.NewAmount(900), Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Title: "coffee", Amount: core.NewAmount(3.5), Date: time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)},
		{ID: "3", Title: "shoes", Amount: core.NewAmount(80), Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, expenses, core.SortHighest, now))
	out := buf.String()

	require.Contains(t, out, "903.50")
	require.Contains(t, out, "451.75")
	require.Contains(t, out, "Highest")

	rent := strings.Index(out, "2024-06-01")
	shoes := strings.Index(out, "2024-05-02")
	coffee := strings.LastIndex(out, "2024-06-15")
	require.True(t, rent < shoes && shoes < coffee, "list should be sorted by amount:\n%s", out)
}

func TestWriteReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, nil, core.SortNewest, time.Now()))
	require.Contains(t, buf.String(), "0.00")
	require.NotContains(t, buf.String(), "Highest")
}

func TestRunReadsSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spendbook.db")
	seed, err := storage.NewSQLiteStore(path, applog.Discard())
	require.NoError(t, err)
	require.NoError(t, seed.Set(context.Background(), "expenses-data",
		`[{"id":"1","title":"groceries","amount":42.5,"date":"2024-06-01T10:00:00Z"}]`))
	require.NoError(t, seed.Close())

	cfg := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: path,
		StorageKey:   "expenses-data",
		Timezone:     "UTC",
	}
	var buf bytes.Buffer
	require.NoError(t, run(cfg, core.SortNewest, &buf, applog.Discard()))
	require.Contains(t, buf.String(), "groceries")
	require.Contains(t, buf.String(), "42.50")
}

func TestRunReturnsBackendErrors(t *testing.T) {
	cfg := &config.Config{DataBackend: "postgres", StorageKey: "expenses-data", Timezone: "UTC"}
	err := run(cfg, core.SortNewest, &bytes.Buffer{}, applog.Discard())
	require.Error(t, err)
}

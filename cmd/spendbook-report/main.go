// spendbook-report prints the analysis summary and the sorted expense list
// from the configured storage backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"spendbook/internal/adapters"
	"spendbook/internal/backend"
	"spendbook/internal/cli"
	"spendbook/internal/config"
	"spendbook/internal/core"
	applog "spendbook/internal/log"
	"spendbook/internal/notify"
	"spendbook/internal/services"
)

func main() {
	sortFlag := flag.String("sort", string(core.DefaultSortMode), "ordering: newest, oldest, high or low")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger("warn")
	cfg := cli.LoadAndValidateConfig(logger)

	mode, err := core.ParseSortMode(*sortFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg, mode, os.Stdout, logger); err != nil {
		logger.Error("Report failed", applog.FieldError, err)
		os.Exit(1)
	}
}

// run loads the collection from the configured backend and writes the
// report. The backend is released before it returns.
func run(cfg *config.Config, mode core.SortMode, out io.Writer, logger *applog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend: %w", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", applog.FieldError, err)
			}
		}()
	}

	store := adapters.NewExpenseStore(res.Store, cfg.StorageKey, notify.NewLogNotifier(logger), logger)
	repo := services.NewExpenseRepository(store, nil, services.WithRepositoryLogger(logger))
	repo.Load(ctx)

	now := time.Now().In(cfg.Location())
	if err := writeReport(out, repo.List(), mode, now); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func writeReport(out io.Writer, expenses []core.Expense, mode core.SortMode, now time.Time) error {
	s := core.Summarize(expenses, now)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Today\t%s\n", s.Today.Format())
	fmt.Fprintf(tw, "This week\t%s\n", s.Week.Format())
	fmt.Fprintf(tw, "This month\t%s\t(%d expenses)\n", s.Month.Format(), s.Count)
	fmt.Fprintf(tw, "Average\t%s\n", s.Average.Format())
	if s.Count > 0 {
		fmt.Fprintf(tw, "Highest\t%s\t%s\n", s.Highest.Amount.Format(), s.Highest.Title)
		fmt.Fprintf(tw, "Lowest\t%s\t%s\n", s.Lowest.Amount.Format(), s.Lowest.Title)
	}
	for i, e := range s.Top {
		fmt.Fprintf(tw, "Top %d\t%s\t%s\n", i+1, e.Amount.Format(), e.Title)
	}

	fmt.Fprintf(tw, "\nExpenses (%s)\t\t\n", mode)
	for _, e := range core.Sorted(expenses, mode) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Date.In(now.Location()).Format("2006-01-02"), e.Amount.Format(), e.Title)
	}
	return tw.Flush()
}

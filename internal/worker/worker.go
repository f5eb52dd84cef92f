// Package worker periodically searches pending imported domains.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"domainacq/internal/services"
)

// Searcher is the part of the batch coordinator the worker drives.
type Searcher interface {
	SearchPending(ctx context.Context) (services.BatchSummary, error)
}

type AutoSearch struct {
	searcher Searcher
	interval time.Duration
	logger   *slog.Logger
}

func NewAutoSearch(searcher Searcher, interval time.Duration, logger *slog.Logger) *AutoSearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoSearch{searcher: searcher, interval: interval, logger: logger.With("component", "auto-search")}
}

// Enabled reports whether a positive interval is configured.
func (w *AutoSearch) Enabled() bool {
	return w.interval > 0
}

// Run searches pending records on every tick until ctx is done. A tick that
// finds a batch already running is skipped.
func (w *AutoSearch) Run(ctx context.Context) error {
	if !w.Enabled() {
		return nil
	}
	w.logger.Info("auto search started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("auto search stopped")
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *AutoSearch) tick(ctx context.Context) {
	summary, err := w.searcher.SearchPending(ctx)
	switch {
	case errors.Is(err, services.ErrBusy):
		w.logger.Debug("batch already running, skipping tick")
	case errors.Is(err, context.Canceled):
	case err != nil:
		w.logger.Error("auto search failed", "error", err)
	case summary.Total > 0:
		w.logger.Info("auto search finished",
			"total", summary.Total, "found", summary.Found,
			"no_variant", summary.NoVariant, "failed", summary.Failed)
	}
}

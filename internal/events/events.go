// Package events publishes the status transitions of imported domains.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"domainacq/internal/models"
)

// Transition is one persisted status change of an imported domain.
type Transition struct {
	RecordID        string        `json:"recordId"`
	OriginalDomain  string        `json:"originalDomain"`
	PurchasedDomain string        `json:"purchasedDomain,omitempty"`
	From            models.Status `json:"from"`
	To              models.Status `json:"to"`
	Error           string        `json:"error,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

type Publisher interface {
	Emit(ctx context.Context, t Transition) error
}

// LogPublisher writes transitions to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, t Transition) error {
	attrs := []any{
		"record_id", t.RecordID,
		"domain", t.OriginalDomain,
		"from", t.From,
		"to", t.To,
	}
	if t.Error != "" {
		attrs = append(attrs, "error", t.Error)
	}
	p.logger.InfoContext(ctx, "status transition", attrs...)
	return nil
}

// Fanout emits to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Emit(ctx context.Context, t Transition) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Emit(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards transitions.
type Nop struct{}

func (Nop) Emit(context.Context, Transition) error { return nil }

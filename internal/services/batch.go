package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"domainacq/internal/metrics"
	"domainacq/internal/models"
	"domainacq/internal/registrar"
	"domainacq/internal/store"
)

const bulkForwardSlot = "bulk-email-forward"

type BatchSummary struct {
	Total     int `json:"total"`
	Found     int `json:"found"`
	NoVariant int `json:"noVariant"`
	Failed    int `json:"failed"`
}

// BatchRun describes the latest background batch search.
type BatchRun struct {
	Running    bool          `json:"running"`
	StartedAt  *time.Time    `json:"startedAt,omitempty"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
	Summary    *BatchSummary `json:"summary,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type ForwardResult struct {
	Domain  string `json:"domain"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ForwardAllResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Results []ForwardResult `json:"results"`
}

// BatchService runs the search phase over every pending record, one record at
// a time, and the account-wide email forward.
type BatchService struct {
	acq       *AcquisitionService
	store     store.RecordStore
	registrar registrar.Registrar
	alias     string

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu  sync.Mutex
	run BatchRun
}

func NewBatchService(acq *AcquisitionService, st store.RecordStore, reg registrar.Registrar, forwardAlias string, opts ...Option) *BatchService {
	o := buildOptions(opts)
	if forwardAlias == "" {
		forwardAlias = "info"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchService{
		acq:       acq,
		store:     st,
		registrar: reg,
		alias:     forwardAlias,
		logger:    o.logger.With("component", "batch"),
		metrics:   o.metrics,
		now:       o.now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SearchPending searches every pending record in store order and waits for
// the whole batch. Records are never approved here.
func (b *BatchService) SearchPending(ctx context.Context) (BatchSummary, error) {
	if !b.begin() {
		return BatchSummary{}, fmt.Errorf("%w: a batch search is already running", ErrBusy)
	}
	summary, err := b.searchPending(ctx)
	b.finish(summary, err)
	return summary, err
}

// StartSearch runs SearchPending in the background. Poll Run for progress.
func (b *BatchService) StartSearch() error {
	if !b.begin() {
		return fmt.Errorf("%w: a batch search is already running", ErrBusy)
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		summary, err := b.searchPending(b.ctx)
		b.finish(summary, err)
	}()
	return nil
}

func (b *BatchService) Run() BatchRun {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.run
}

// Shutdown cancels a background batch and waits for it to stop.
func (b *BatchService) Shutdown() {
	b.cancel()
	b.wg.Wait()
}

func (b *BatchService) begin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run.Running {
		return false
	}
	started := b.now()
	b.run = BatchRun{Running: true, StartedAt: &started}
	return true
}

func (b *BatchService) finish(summary BatchSummary, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	finished := b.now()
	b.run.Running = false
	b.run.FinishedAt = &finished
	b.run.Summary = &summary
	if err != nil {
		b.run.Error = err.Error()
	}
}

func (b *BatchService) searchPending(ctx context.Context) (BatchSummary, error) {
	pending, err := b.store.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("list pending records: %w", err)
	}
	summary := BatchSummary{Total: len(pending)}
	b.logger.Info("batch search started", "pending", len(pending))

	for _, rec := range pending {
		release, err := b.acq.guard.Begin(ctx, rec.ID)
		if err != nil {
			return summary, err
		}
		updated, err := b.acq.search(ctx, rec.ID)
		release()
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Warn("batch search interrupted", "record_id", rec.ID, "summary", summary)
				return summary, ctx.Err()
			}
			summary.Failed++
			b.logger.Error("search failed", "record_id", rec.ID, "domain", rec.OriginalDomain, "error", err)
			continue
		}
		switch updated.Status {
		case models.StatusFound:
			summary.Found++
		case models.StatusNoVariant:
			summary.NoVariant++
		}
	}

	b.logger.Info("batch search finished",
		"total", summary.Total, "found", summary.Found,
		"no_variant", summary.NoVariant, "failed", summary.Failed)
	return summary, nil
}

// ForwardAll sets the bulk alias on every domain in the registrar account.
// A failing domain is reported in the results and does not stop the others.
func (b *BatchService) ForwardAll(ctx context.Context, forwardTo string) (*ForwardAllResult, error) {
	dest, err := forwardDestination(forwardTo, "")
	if err != nil {
		return nil, err
	}
	release, err := b.acq.guard.TryBegin(bulkForwardSlot)
	if err != nil {
		return nil, err
	}
	defer release()

	domains, err := b.registrar.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registrar domains: %w", err)
	}
	if len(domains) == 0 {
		return nil, invalid("", "No domains found in account")
	}

	results := make([]ForwardResult, 0, len(domains))
	succeeded := 0
	for _, d := range domains {
		res, err := b.registrar.SetEmailForward(ctx, d.Domain, []registrar.EmailForward{
			{Username: b.alias, ForwardTo: dest},
		})
		entry := ForwardResult{Domain: d.Domain, Success: err == nil && res.Success}
		entry.Message = stepMessage(res, err, "email forwarding failed")
		if entry.Success {
			succeeded++
		} else {
			b.logger.Warn("bulk email forward failed", "domain", d.Domain, "error", entry.Message)
		}
		b.metrics.IncBulkForward(entry.Success)
		results = append(results, entry)
	}

	return &ForwardAllResult{
		Success: succeeded > 0,
		Message: fmt.Sprintf("Email forwarding set for %d/%d domains", succeeded, len(domains)),
		Results: results,
	}, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"domainacq/internal/events"
	"domainacq/internal/metrics"
	"domainacq/internal/models"
	"domainacq/internal/registrar"
	"domainacq/internal/store"
)

// AcquisitionConfig holds the tunables of the acquisition pipeline.
type AcquisitionConfig struct {
	RegisterYears int
	// RepickPrefixOnRetry draws a fresh email prefix on retry instead of
	// reusing the one already assigned to the record.
	RepickPrefixOnRetry bool
}

// AcquisitionService drives one imported domain through search, purchase and
// forwarding configuration. Every status change is persisted before the next
// remote call is made.
type AcquisitionService struct {
	store     store.RecordStore
	registrar registrar.Registrar
	prober    Prober
	prefixes  *PrefixPicker
	guard     *Guard
	cfg       AcquisitionConfig

	logger  *slog.Logger
	metrics *metrics.Metrics
	events  events.Publisher
	now     func() time.Time
}

type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	events  events.Publisher
	prober  Prober
	now     func() time.Time
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.events = p }
}

// WithProber replaces the registrar search used to probe variants.
func WithProber(p Prober) Option {
	return func(o *options) { o.prober = p }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.events == nil {
		o.events = events.NewLogPublisher(o.logger)
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

func NewAcquisitionService(
	st store.RecordStore,
	reg registrar.Registrar,
	prefixes *PrefixPicker,
	cfg AcquisitionConfig,
	opts ...Option,
) *AcquisitionService {
	o := buildOptions(opts)
	if cfg.RegisterYears <= 0 {
		cfg.RegisterYears = 1
	}
	prober := o.prober
	if prober == nil {
		prober = NewRegistrarProber(reg)
	}
	return &AcquisitionService{
		store:     st,
		registrar: reg,
		prober:    prober,
		prefixes:  prefixes,
		guard:     NewGuard(),
		cfg:       cfg,
		logger:    o.logger.With("component", "acquisition"),
		metrics:   o.metrics,
		events:    o.events,
		now:       o.now,
	}
}

// Guard exposes the processing slot shared with the batch coordinator.
func (s *AcquisitionService) Guard() *Guard { return s.guard }

// Search scans the variants of the record's original domain and stops at the
// first one the registrar reports as available.
func (s *AcquisitionService) Search(ctx context.Context, id string) (*models.ImportedDomain, error) {
	release, err := s.guard.TryBegin(id)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.search(ctx, id)
}

func (s *AcquisitionService) search(ctx context.Context, id string) (*models.ImportedDomain, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !searchable(rec) {
		return nil, fmt.Errorf("%w: cannot search a record in status %s", ErrInvalidState, rec.Status)
	}

	empty := ""
	rec, err = s.transition(ctx, rec, models.StatusSearching, models.ImportedDomainPatch{
		PurchasedDomain: &empty,
		ClearPrice:      true,
		Currency:        &empty,
	})
	if err != nil {
		return nil, err
	}

	log := s.logger.With("record_id", rec.ID, "domain", rec.OriginalDomain)
	variants := GenerateVariants(rec.OriginalDomain)
	for i, candidate := range variants {
		if ctx.Err() != nil {
			return s.interrupted(ctx, rec)
		}
		res, err := s.prober.Probe(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return s.interrupted(ctx, rec)
			}
			s.metrics.IncProbe("failed")
			log.Warn("probe failed, skipping candidate", "candidate", candidate, "error", err)
			continue
		}
		if !res.Available {
			s.metrics.IncProbe("taken")
			continue
		}
		s.metrics.IncProbe("available")
		log.Info("available variant found", "candidate", candidate, "probes", i+1)
		patch := models.ImportedDomainPatch{PurchasedDomain: &candidate}
		if res.Price != nil {
			patch.Price = res.Price
		}
		if res.Currency != "" {
			patch.Currency = &res.Currency
		}
		s.metrics.IncSearchOutcome(string(models.StatusFound))
		return s.transition(ctx, rec, models.StatusFound, patch)
	}

	log.Info("no available variant", "probes", len(variants))
	s.metrics.IncSearchOutcome(string(models.StatusNoVariant))
	return s.transition(ctx, rec, models.StatusNoVariant, models.ImportedDomainPatch{})
}

func searchable(rec *models.ImportedDomain) bool {
	switch rec.Status {
	case models.StatusPending, models.StatusNoVariant:
		return true
	case models.StatusError:
		return !rec.Registered()
	}
	return false
}

// interrupted puts a cancelled search back to pending and reports the
// cancellation.
func (s *AcquisitionService) interrupted(ctx context.Context, rec *models.ImportedDomain) (*models.ImportedDomain, error) {
	s.metrics.IncSearchOutcome("cancelled")
	updated, err := s.transition(ctx, rec, models.StatusPending, models.ImportedDomainPatch{})
	if err != nil {
		return nil, errors.Join(ctx.Err(), err)
	}
	return updated, ctx.Err()
}

// Approve registers the found variant and configures email and URL
// forwarding on it. Pipeline failures are recorded on the returned record,
// not returned as errors. Once started the pipeline runs to the end even if
// ctx is cancelled: a purchase cannot be taken back.
func (s *AcquisitionService) Approve(ctx context.Context, id, forwardTo string) (*models.ImportedDomain, error) {
	release, err := s.guard.TryBegin(id)
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.StatusFound {
		return nil, fmt.Errorf("%w: only found records can be approved (status %s)", ErrInvalidState, rec.Status)
	}
	if rec.PurchasedDomain == "" {
		return nil, fmt.Errorf("%w: record has no variant to purchase", ErrInvalidState)
	}
	dest, err := forwardDestination(forwardTo, rec.EmailForwardTo)
	if err != nil {
		return nil, err
	}

	rec, err = s.transition(ctx, rec, models.StatusPurchasing, models.ImportedDomainPatch{EmailForwardTo: &dest})
	if err != nil {
		return nil, err
	}

	res, err := s.registrar.RegisterDomain(ctx, rec.PurchasedDomain, s.cfg.RegisterYears)
	if err != nil || !res.Success {
		return s.fail(ctx, rec, stepMessage(res, err, "registration failed"))
	}
	registeredAt := s.now()
	registered, err := s.store.Update(ctx, rec.ID, models.ImportedDomainPatch{RegisteredAt: &registeredAt})
	if err != nil {
		return nil, fmt.Errorf("record registration of %s: %w", rec.PurchasedDomain, err)
	}
	return s.configure(ctx, registered, dest, true)
}

// Retry re-runs email and URL configuration for a registered domain. The
// domain is never registered again. Like Approve it ignores cancellation.
func (s *AcquisitionService) Retry(ctx context.Context, id, forwardTo string) (*models.ImportedDomain, error) {
	release, err := s.guard.TryBegin(id)
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case rec.Status == models.StatusDone:
	case rec.Status == models.StatusError && rec.Registered():
	case rec.Status == models.StatusError:
		return nil, fmt.Errorf("%w: %s was never registered, search again instead", ErrInvalidState, rec.OriginalDomain)
	default:
		return nil, fmt.Errorf("%w: cannot retry a record in status %s", ErrInvalidState, rec.Status)
	}
	dest, err := forwardDestination(forwardTo, rec.EmailForwardTo)
	if err != nil {
		return nil, err
	}
	return s.configure(ctx, rec, dest, s.cfg.RepickPrefixOnRetry)
}

// configure runs the email and URL forwarding steps on a registered domain.
func (s *AcquisitionService) configure(ctx context.Context, rec *models.ImportedDomain, forwardTo string, repick bool) (*models.ImportedDomain, error) {
	prefix := rec.EmailPrefix
	if repick || prefix == "" {
		var err error
		prefix, err = s.prefixes.Next(ctx)
		if err != nil {
			if models.CanTransition(rec.Status, models.StatusError) {
				return s.fail(ctx, rec, err.Error())
			}
			return nil, err
		}
	}

	rec, err := s.transition(ctx, rec, models.StatusConfiguringEmail, models.ImportedDomainPatch{
		EmailPrefix:    &prefix,
		EmailForwardTo: &forwardTo,
	})
	if err != nil {
		return nil, err
	}
	res, err := s.registrar.SetEmailForward(ctx, rec.PurchasedDomain, []registrar.EmailForward{
		{Username: prefix, ForwardTo: forwardTo},
	})
	if err != nil || !res.Success {
		return s.fail(ctx, rec, stepMessage(res, err, "email forwarding failed"))
	}

	target := rec.ResolveForwardURL()
	rec, err = s.transition(ctx, rec, models.StatusConfiguringURL, models.ImportedDomainPatch{ForwardURL: &target})
	if err != nil {
		return nil, err
	}
	res, err = s.registrar.SetURLForwarding(ctx, rec.PurchasedDomain, target, true)
	if err != nil || !res.Success {
		return s.fail(ctx, rec, stepMessage(res, err, "URL forwarding failed"))
	}

	return s.transition(ctx, rec, models.StatusDone, models.ImportedDomainPatch{})
}

// fail moves the record to error with msg. The pipeline result is the
// record itself, so a nil error is returned once the failure is persisted.
func (s *AcquisitionService) fail(ctx context.Context, rec *models.ImportedDomain, msg string) (*models.ImportedDomain, error) {
	s.logger.Warn("pipeline step failed", "record_id", rec.ID, "status", rec.Status, "error", msg)
	return s.transition(ctx, rec, models.StatusError, models.ImportedDomainPatch{Error: &msg})
}

// transition persists a status change, counts it and publishes it. Writes are
// detached from ctx cancellation so an aborted request still leaves the
// record in a truthful state.
func (s *AcquisitionService) transition(ctx context.Context, rec *models.ImportedDomain, to models.Status, patch models.ImportedDomainPatch) (*models.ImportedDomain, error) {
	from := rec.Status
	if !models.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidState, from, to)
	}
	patch.Status = &to
	if to != models.StatusError && patch.Error == nil {
		cleared := ""
		patch.Error = &cleared
	}

	writeCtx := context.WithoutCancel(ctx)
	updated, err := s.store.Update(writeCtx, rec.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("persist %s -> %s for %s: %w", from, to, rec.ID, err)
	}
	s.metrics.IncTransition(string(to))

	ev := events.Transition{
		RecordID:        updated.ID,
		OriginalDomain:  updated.OriginalDomain,
		PurchasedDomain: updated.PurchasedDomain,
		From:            from,
		To:              to,
		Error:           updated.Error,
		Timestamp:       s.now(),
	}
	if err := s.events.Emit(writeCtx, ev); err != nil {
		s.logger.Warn("publish transition failed", "record_id", updated.ID, "to", to, "error", err)
	}
	return updated, nil
}

// UpdateInput carries operator edits. Nil fields are left alone; an empty
// string clears the value.
type UpdateInput struct {
	ForwardURL      *string  `json:"forwardUrl"`
	EmailForwardTo  *string  `json:"emailForwardTo"`
	PurchasedDomain *string  `json:"purchasedDomain"`
	Price           *float64 `json:"price"`
}

func (s *AcquisitionService) Update(ctx context.Context, id string, in UpdateInput) (*models.ImportedDomain, error) {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return nil, err
	}

	var patch models.ImportedDomainPatch
	if in.ForwardURL != nil {
		u, err := validForwardURL(*in.ForwardURL)
		if err != nil {
			return nil, err
		}
		patch.ForwardURL = &u
	}
	if in.EmailForwardTo != nil {
		addr := strings.TrimSpace(*in.EmailForwardTo)
		if addr != "" {
			parsed, err := mail.ParseAddress(addr)
			if err != nil {
				return nil, invalid("emailForwardTo", "%q is not a valid email address", addr)
			}
			addr = parsed.Address
		}
		patch.EmailForwardTo = &addr
	}
	if in.PurchasedDomain != nil {
		d := strings.ToLower(strings.TrimSpace(*in.PurchasedDomain))
		if d != "" && !strings.Contains(d, ".") {
			return nil, invalid("purchasedDomain", "%q is not a domain", d)
		}
		patch.PurchasedDomain = &d
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, invalid("price", "must not be negative")
		}
		patch.Price = in.Price
	}
	if patch.Empty() {
		return nil, invalid("", "no editable fields given")
	}

	var rec *models.ImportedDomain
	err := s.guard.WhileIdle(id, func() error {
		var err error
		rec, err = s.store.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("record edited", "record_id", id)
	return rec, nil
}

func (s *AcquisitionService) Get(ctx context.Context, id string) (*models.ImportedDomain, error) {
	return s.store.FindByID(ctx, id)
}

func (s *AcquisitionService) List(ctx context.Context) ([]models.ImportedDomain, error) {
	return s.store.List(ctx)
}

func (s *AcquisitionService) Stats(ctx context.Context) (models.Stats, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return models.CountByStatus(recs), nil
}

func (s *AcquisitionService) Delete(ctx context.Context, id string) error {
	return s.guard.WhileIdle(id, func() error {
		return s.store.Delete(ctx, id)
	})
}

// DeleteAll empties the store unless a record is being processed.
func (s *AcquisitionService) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.guard.WhileIdle("", func() error {
		var err error
		n, err = s.store.DeleteAll(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("all imported domains deleted", "count", n)
	return n, nil
}

// forwardDestination picks the explicit address, falling back to the one
// stored on the record.
func forwardDestination(explicit, stored string) (string, error) {
	addr := strings.TrimSpace(explicit)
	if addr == "" {
		addr = strings.TrimSpace(stored)
	}
	if addr == "" {
		return "", invalid("emailForwardTo", "a forwarding address is required")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", invalid("emailForwardTo", "%q is not a valid email address", addr)
	}
	return parsed.Address, nil
}

func validForwardURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", nil
	}
	check := u
	if !strings.HasPrefix(check, "http://") && !strings.HasPrefix(check, "https://") {
		check = "https://" + check
	}
	parsed, err := url.Parse(check)
	if err != nil || parsed.Host == "" {
		return "", invalid("forwardUrl", "%q is not a valid URL", u)
	}
	return u, nil
}

func stepMessage(res registrar.Result, err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	if res.Message != "" {
		return res.Message
	}
	return fallback
}

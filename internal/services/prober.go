package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/likexian/whois"

	"domainacq/internal/registrar"
)

// Prober answers whether a single domain can be registered.
type Prober interface {
	Probe(ctx context.Context, domain string) (registrar.SearchResult, error)
}

type ProberFunc func(ctx context.Context, domain string) (registrar.SearchResult, error)

func (f ProberFunc) Probe(ctx context.Context, domain string) (registrar.SearchResult, error) {
	return f(ctx, domain)
}

// NewRegistrarProber probes through the registrar's search command.
func NewRegistrarProber(reg registrar.Registrar) Prober {
	return ProberFunc(reg.SearchDomain)
}

// Lines that only appear in WHOIS answers for registered domains.
var takenPatterns = []string{
	"registrar:",
	"registrant:",
	"creation date:",
	"created:",
	"registry expiry date:",
	"expiration date:",
	"name server:",
	"nameserver:",
	"nserver:",
	"domain status:",
	"status: connect",
	"changed:",
}

// WhoisPrefilter skips registrar searches for domains whose WHOIS record
// plainly shows a registration. Anything else, including lookup failures,
// goes to the wrapped prober.
type WhoisPrefilter struct {
	next   Prober
	lookup func(domain string) (string, error)
	logger *slog.Logger
}

func NewWhoisPrefilter(next Prober, logger *slog.Logger) *WhoisPrefilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WhoisPrefilter{
		next: next,
		lookup: func(domain string) (string, error) {
			return whois.Whois(domain)
		},
		logger: logger,
	}
}

func (w *WhoisPrefilter) Probe(ctx context.Context, domain string) (registrar.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return registrar.SearchResult{}, err
	}
	text, err := w.lookup(domain)
	if err != nil {
		w.logger.Debug("whois lookup failed, asking registrar", "domain", domain, "error", err)
		return w.next.Probe(ctx, domain)
	}
	if registeredInWhois(text) {
		w.logger.Debug("whois shows domain registered", "domain", domain)
		return registrar.SearchResult{Domain: domain, Available: false}, nil
	}
	return w.next.Probe(ctx, domain)
}

func registeredInWhois(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range takenPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

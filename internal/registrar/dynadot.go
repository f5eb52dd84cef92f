package registrar

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"domainacq/internal/metrics"
)

const DefaultDynadotURL = "https://api.dynadot.com/api3.xml"

var errInvalidResponse = errors.New("invalid response from Dynadot")

var errNoAPIKey = errors.New("DYNADOT_API_KEY not configured")

// Dynadot is a Registrar backed by the Dynadot api3.xml interface.
type Dynadot struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

var _ Registrar = (*Dynadot)(nil)

type Option func(*Dynadot)

func WithHTTPClient(c *http.Client) Option {
	return func(d *Dynadot) { d.client = c }
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dynadot) { d.client.Timeout = timeout }
}

// WithRateLimit caps outgoing commands per second. Zero or less disables the cap.
func WithRateLimit(perSecond float64) Option {
	return func(d *Dynadot) {
		if perSecond <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dynadot) { d.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dynadot) { d.metrics = m }
}

func NewDynadot(apiKey, baseURL string, opts ...Option) *Dynadot {
	if baseURL == "" {
		baseURL = DefaultDynadotURL
	}
	d := &Dynadot{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
		logger:  slog.Default(),
		tracer:  otel.Tracer("domainacq/registrar"),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "dynadot")
	return d
}

func (d *Dynadot) SearchDomain(ctx context.Context, domain string) (SearchResult, error) {
	env, err := d.call(ctx, "search", url.Values{
		"domain0":    {domain},
		"show_price": {"1"},
	})
	if err != nil {
		return SearchResult{}, err
	}
	h := env.searchHeader(d.logger)
	if h == nil {
		d.logger.Warn("search response had no result", "domain", domain, "root", env.XMLName.Local)
		return SearchResult{}, &Error{Command: "search", Err: errInvalidResponse}
	}
	if h.Error != "" || h.SuccessCode == "-1" {
		msg := h.Error
		if msg == "" {
			msg = "search failed"
		}
		return SearchResult{}, &Error{Command: "search", Message: msg, API: true}
	}
	return toSearchResult(h, domain), nil
}

func (d *Dynadot) RegisterDomain(ctx context.Context, domain string, years int) (Result, error) {
	if years <= 0 {
		years = 1
	}
	if _, err := d.call(ctx, "register", url.Values{
		"domain":   {domain},
		"duration": {strconv.Itoa(years)},
	}); err != nil {
		return failure(err)
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Domain %s successfully registered for %d year(s)", domain, years),
	}, nil
}

func (d *Dynadot) SetEmailForward(ctx context.Context, domain string, forwards []EmailForward) (Result, error) {
	if len(forwards) == 0 {
		return Result{Success: false, Message: "no email forwards given"}, nil
	}
	params := url.Values{
		"domain":       {domain},
		"forward_type": {"forward"},
	}
	for i, f := range forwards {
		n := strconv.Itoa(i)
		params.Set("username"+n, f.Username)
		params.Set("exist_email"+n, f.ForwardTo)
	}
	if _, err := d.call(ctx, "set_email_forward", params); err != nil {
		return failure(err)
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Email forwarding configured for %s", domain),
	}, nil
}

func (d *Dynadot) SetURLForwarding(ctx context.Context, domain, forwardURL string, permanent bool) (Result, error) {
	target := withScheme(forwardURL)
	isTemp := "yes"
	if permanent {
		isTemp = "no"
	}
	if _, err := d.call(ctx, "set_forwarding", url.Values{
		"domain":      {domain},
		"forward_url": {target},
		"is_temp":     {isTemp},
	}); err != nil {
		return failure(err)
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("URL forwarding set: %s -> %s", domain, target),
	}, nil
}

func (d *Dynadot) ListDomains(ctx context.Context) ([]DomainInfo, error) {
	env, err := d.call(ctx, "list_domain", url.Values{})
	if err != nil {
		return nil, err
	}
	raw := env.domainInfos(d.logger)
	out := make([]DomainInfo, 0, len(raw))
	for _, r := range raw {
		info := toDomainInfo(r)
		if info.Domain == "" {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// call issues one api3.xml command and decodes the envelope. Registrar-side
// failures come back as *Error with API set.
func (d *Dynadot) call(ctx context.Context, command string, params url.Values) (env *envelope, err error) {
	ctx, span := d.tracer.Start(ctx, "dynadot."+command, trace.WithAttributes(
		attribute.String("registrar.command", command),
		attribute.String("registrar.domain", firstNonEmpty(params.Get("domain"), params.Get("domain0"))),
	))
	start := time.Now()
	defer func() {
		d.metrics.ObserveRegistrar(command, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if d.apiKey == "" {
		return nil, &Error{Command: command, Err: errNoAPIKey}
	}
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, &Error{Command: command, Err: err}
		}
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("key", d.apiKey)
	q.Set("command", command)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &Error{Command: command, Err: err}
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &Error{Command: command, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Command: command, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Command: command, Err: fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)}
	}

	env = &envelope{}
	if err := xml.Unmarshal(body, env); err != nil {
		return nil, &Error{Command: command, Err: fmt.Errorf("decode response: %w", err)}
	}
	d.logger.Debug("registrar response", "command", command, "root", env.XMLName.Local)

	if msg, failed := env.apiError(); failed {
		d.logger.Warn("registrar returned an error", "command", command, "error", msg)
		return nil, &Error{Command: command, Message: msg, API: true}
	}
	return env, nil
}

// failure turns a registrar-side error into an unsuccessful Result and passes
// transport errors through.
func failure(err error) (Result, error) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.API {
		return Result{Success: false, Message: apiErr.Message}, nil
	}
	return Result{}, err
}

func withScheme(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}

package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"domainacq/internal/models"
	"domainacq/internal/store"
)

// Table is a parsed CSV upload: the header row and the data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ParseCSV reads a comma-separated upload whose first row holds the headers.
// Rows may be ragged; blank lines are dropped and every field is trimmed.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var t Table
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("file", "malformed CSV: %v", err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if t.Headers == nil {
			t.Headers = rec
			continue
		}
		if blankRow(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	if t.Headers == nil {
		return nil, invalid("file", "CSV is empty")
	}
	return &t, nil
}

func blankRow(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}

// ResolveColumn finds the column named by sel, either a zero-based index or
// a header name compared case-insensitively.
func ResolveColumn(headers []string, sel string) (int, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return 0, invalid("column", "a column is required")
	}
	if i, err := strconv.Atoi(sel); err == nil {
		if i < 0 || i >= len(headers) {
			return 0, invalid("column", "index %d out of range (%d columns)", i, len(headers))
		}
		return i, nil
	}
	for i, h := range headers {
		if strings.EqualFold(h, sel) {
			return i, nil
		}
	}
	return 0, invalid("column", "no column named %q", sel)
}

type Preview struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

// PreviewTable returns the headers and the first n rows.
func PreviewTable(t *Table, n int) Preview {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return Preview{Headers: t.Headers, Rows: t.Rows[:n], TotalRows: len(t.Rows)}
}

type ImportSummary struct {
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
	Skipped    int `json:"skipped"`
}

type CreateInput struct {
	OriginalDomain string `json:"originalDomain"`
	EmailForwardTo string `json:"emailForwardTo"`
	ForwardURL     string `json:"forwardUrl"`
}

// ImportService turns uploaded names into pending records.
type ImportService struct {
	store      store.RecordStore
	normalizer Normalizer
	logger     *slog.Logger
}

func NewImportService(st store.RecordStore, n Normalizer, opts ...Option) *ImportService {
	o := buildOptions(opts)
	return &ImportService{
		store:      st,
		normalizer: n,
		logger:     o.logger.With("component", "import"),
	}
}

func (s *ImportService) Normalizer() Normalizer { return s.normalizer }

// Import creates a pending record for every row of column whose normalized
// name is long enough and not already known.
func (s *ImportService) Import(ctx context.Context, t *Table, column int, forwardTo string) (ImportSummary, error) {
	var summary ImportSummary
	if column < 0 || column >= len(t.Headers) {
		return summary, invalid("column", "index %d out of range (%d columns)", column, len(t.Headers))
	}
	dest, err := optionalAddress(forwardTo)
	if err != nil {
		return summary, err
	}

	seen, err := s.existingDomains(ctx)
	if err != nil {
		return summary, err
	}

	var batch []*models.ImportedDomain
	for _, row := range t.Rows {
		if column >= len(row) {
			summary.Skipped++
			continue
		}
		name := strings.TrimSpace(strings.ReplaceAll(row[column], `"`, ""))
		if name == "" {
			summary.Skipped++
			continue
		}
		domain := s.normalizer.Normalize(name)
		if !s.normalizer.Importable(domain) {
			summary.Rejected++
			continue
		}
		if _, dup := seen[domain]; dup {
			summary.Duplicates++
			continue
		}
		seen[domain] = struct{}{}
		batch = append(batch, &models.ImportedDomain{
			OriginalDomain: domain,
			EmailForwardTo: dest,
			Status:         models.StatusPending,
		})
	}

	if len(batch) > 0 {
		n, err := s.store.CreateBatch(ctx, batch)
		if err != nil {
			return summary, fmt.Errorf("import %d records: %w", len(batch), err)
		}
		summary.Created = n
		summary.Duplicates += len(batch) - n
	}
	s.logger.Info("csv imported",
		"rows", len(t.Rows), "created", summary.Created, "duplicates", summary.Duplicates,
		"rejected", summary.Rejected, "skipped", summary.Skipped)
	return summary, nil
}

// Create adds one record. A domain that is already stored yields store.ErrConflict.
func (s *ImportService) Create(ctx context.Context, in CreateInput) (*models.ImportedDomain, error) {
	rec, err := s.newRecord(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateMany adds every valid, previously unknown entry and returns how many
// records were created. Invalid and duplicate entries are skipped.
func (s *ImportService) CreateMany(ctx context.Context, inputs []CreateInput) (int, error) {
	batch := make([]*models.ImportedDomain, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		rec, err := s.newRecord(in)
		if err != nil {
			s.logger.Debug("skipping invalid entry", "domain", in.OriginalDomain, "error", err)
			continue
		}
		if _, dup := seen[rec.OriginalDomain]; dup {
			continue
		}
		seen[rec.OriginalDomain] = struct{}{}
		batch = append(batch, rec)
	}
	if len(batch) == 0 {
		return 0, nil
	}
	n, err := s.store.CreateBatch(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("create %d records: %w", len(batch), err)
	}
	return n, nil
}

func (s *ImportService) newRecord(in CreateInput) (*models.ImportedDomain, error) {
	domain := s.normalizer.Normalize(in.OriginalDomain)
	if domain == "" {
		return nil, invalid("originalDomain", "is required")
	}
	if !s.normalizer.Importable(domain) {
		return nil, invalid("originalDomain", "%q is too short", domain)
	}
	dest, err := optionalAddress(in.EmailForwardTo)
	if err != nil {
		return nil, err
	}
	forwardURL, err := validForwardURL(in.ForwardURL)
	if err != nil {
		return nil, err
	}
	return &models.ImportedDomain{
		OriginalDomain: domain,
		EmailForwardTo: dest,
		ForwardURL:     forwardURL,
		Status:         models.StatusPending,
	}, nil
}

func (s *ImportService) existingDomains(ctx context.Context) (map[string]struct{}, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing records: %w", err)
	}
	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		seen[r.OriginalDomain] = struct{}{}
	}
	return seen, nil
}

func optionalAddress(addr string) (string, error) {
	if strings.TrimSpace(addr) == "" {
		return "", nil
	}
	return forwardDestination(addr, "")
}

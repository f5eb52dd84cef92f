package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"domainacq/internal/models"
)

// MemoryStore is a process-local RecordStore, used by tests and the offline CLI.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*entry
	seq     int64
	now     func() time.Time
}

type entry struct {
	rec models.ImportedDomain
	seq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*entry), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, rec *models.ImportedDomain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(rec)
}

func (s *MemoryStore) insertLocked(rec *models.ImportedDomain) error {
	if err := rec.Prepare(); err != nil {
		return err
	}
	for _, e := range s.records {
		if e.rec.OriginalDomain == rec.OriginalDomain {
			return fmt.Errorf("%w: %s", ErrConflict, rec.OriginalDomain)
		}
	}
	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("%w: id %s", ErrConflict, rec.ID)
	}
	now := s.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.seq++
	s.records[rec.ID] = &entry{rec: *rec, seq: s.seq}
	return nil
}

func (s *MemoryStore) CreateBatch(_ context.Context, recs []*models.ImportedDomain) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := 0
	for _, rec := range recs {
		if err := s.insertLocked(rec); err != nil {
			if isConflict(err) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.ImportedDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec := e.rec
	return &rec, nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.ImportedDomain, error) {
	return s.list(func(models.ImportedDomain) bool { return true }), nil
}

func (s *MemoryStore) ListByStatus(_ context.Context, status models.Status) ([]models.ImportedDomain, error) {
	return s.list(func(r models.ImportedDomain) bool { return r.Status == status }), nil
}

func (s *MemoryStore) list(keep func(models.ImportedDomain) bool) []models.ImportedDomain {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.records))
	for _, e := range s.records {
		if keep(e.rec) {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].rec.CreatedAt.Equal(entries[j].rec.CreatedAt) {
			return entries[i].rec.CreatedAt.After(entries[j].rec.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})
	out := make([]models.ImportedDomain, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out
}

func (s *MemoryStore) Update(_ context.Context, id string, patch models.ImportedDomainPatch) (*models.ImportedDomain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !patch.Empty() {
		patch.Apply(&e.rec)
		e.rec.UpdatedAt = s.now()
	}
	rec := e.rec
	return &rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.records))
	s.records = make(map[string]*entry)
	return n, nil
}

// MemoryPrefixState is an in-process PrefixState.
type MemoryPrefixState struct {
	mu   sync.Mutex
	last string
}

func (m *MemoryPrefixState) LoadLastPrefix(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

func (m *MemoryPrefixState) SaveLastPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = prefix
	return nil
}

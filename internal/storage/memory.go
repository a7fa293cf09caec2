package storage

import (
	"sort"
	"sync"

	"github.com/prasenjit/spechub/internal/models"
)

// MemoryStorage implements Storage with in-memory maps. Used for tests and
// ephemeral development runs.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*models.ApiRecord
}

// NewMemoryStorage creates a new in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*models.ApiRecord),
	}
}

// CreateAPI inserts a new record. The triple uniqueness check runs under the
// same lock as the insert, so concurrent identical uploads cannot both create.
func (m *MemoryStorage) CreateAPI(rec *models.ApiRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.records {
		if existing.Name == rec.Name && existing.Version == rec.Version && existing.ProviderID == rec.ProviderID {
			return ErrDuplicate
		}
	}

	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

// GetAPI retrieves a record by ID.
func (m *MemoryStorage) GetAPI(id string) (*models.ApiRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *rec
	return &cp, nil
}

// FindByTriple retrieves a record by its (name, version, providerId) triple.
func (m *MemoryStorage) FindByTriple(name, version, providerID string) (*models.ApiRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.records {
		if rec.Name == name && rec.Version == version && rec.ProviderID == providerID {
			cp := *rec
			return &cp, nil
		}
	}

	return nil, ErrNotFound
}

// UpdateAPI overwrites an existing record.
func (m *MemoryStorage) UpdateAPI(rec *models.ApiRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.ID]; !ok {
		return ErrNotFound
	}

	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

// ListAll returns summaries for every record, newest first.
func (m *MemoryStorage) ListAll() ([]models.ApiSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ApiSummary, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.Summary())
	}
	sortSummaries(out)
	return out, nil
}

// ListSaved returns summaries for records with isSaved=true, newest first.
func (m *MemoryStorage) ListSaved() ([]models.ApiSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ApiSummary, 0)
	for _, rec := range m.records {
		if rec.IsSaved {
			out = append(out, rec.Summary())
		}
	}
	sortSummaries(out)
	return out, nil
}

// Close is a no-op for memory storage.
func (m *MemoryStorage) Close() error {
	return nil
}

func sortSummaries(s []models.ApiSummary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].CreatedAt.After(s[j].CreatedAt)
		}
		return s[i].ID < s[j].ID
	})
}

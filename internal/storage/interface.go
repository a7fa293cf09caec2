package storage

import (
	"errors"

	"github.com/prasenjit/spechub/internal/models"
)

// ErrNotFound is returned when no record matches the given identifier or triple.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned by CreateAPI when a record with the same
// (name, version, providerId) triple already exists. Callers racing on
// find-or-create should re-find and update instead.
var ErrDuplicate = errors.New("record already exists for name/version/provider")

// Storage defines the interface for record persistence.
type Storage interface {
	// CreateAPI inserts a new record. The (name, version, providerId) triple
	// is unique; a collision yields ErrDuplicate.
	CreateAPI(rec *models.ApiRecord) error
	GetAPI(id string) (*models.ApiRecord, error)
	FindByTriple(name, version, providerID string) (*models.ApiRecord, error)
	UpdateAPI(rec *models.ApiRecord) error
	ListAll() ([]models.ApiSummary, error)
	ListSaved() ([]models.ApiSummary, error)
	Close() error
}

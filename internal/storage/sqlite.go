package storage

import (
	"database/sql"
	"errors"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/prasenjit/spechub/internal/models"
)

// SQLiteStore implements Storage backed by a SQLite database. The spec
// document is stored as JSON text; the (name, version, provider_id) triple
// carries a unique index so concurrent identical uploads cannot both insert.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) a SQLite database at dsn.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS apis (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			provider_id TEXT NOT NULL,
			provider_name TEXT NOT NULL DEFAULT '',
			provider_website TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			spec TEXT NOT NULL,
			is_saved INTEGER NOT NULL DEFAULT 0,
			saved_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_apis_triple ON apis(name, version, provider_id);`,
		`CREATE INDEX IF NOT EXISTS idx_apis_saved ON apis(is_saved);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateAPI inserts a new record. A unique-index collision on the triple is
// reported as ErrDuplicate.
func (s *SQLiteStore) CreateAPI(rec *models.ApiRecord) error {
	_, err := s.db.Exec(`INSERT INTO apis(id,name,version,provider_id,provider_name,provider_website,description,spec,is_saved,saved_at,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Name, rec.Version, rec.ProviderID, rec.ProviderName, rec.ProviderWebsite,
		rec.Description, string(rec.Spec), boolToInt(rec.IsSaved), rec.SavedAt, rec.CreatedAt, rec.UpdatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}

// GetAPI retrieves a record by ID.
func (s *SQLiteStore) GetAPI(id string) (*models.ApiRecord, error) {
	row := s.db.QueryRow(`SELECT id,name,version,provider_id,provider_name,provider_website,description,spec,is_saved,saved_at,created_at,updated_at
		FROM apis WHERE id=?`, id)
	return scanRecord(row)
}

// FindByTriple retrieves a record by its (name, version, providerId) triple.
func (s *SQLiteStore) FindByTriple(name, version, providerID string) (*models.ApiRecord, error) {
	row := s.db.QueryRow(`SELECT id,name,version,provider_id,provider_name,provider_website,description,spec,is_saved,saved_at,created_at,updated_at
		FROM apis WHERE name=? AND version=? AND provider_id=?`, name, version, providerID)
	return scanRecord(row)
}

// UpdateAPI overwrites an existing record.
func (s *SQLiteStore) UpdateAPI(rec *models.ApiRecord) error {
	res, err := s.db.Exec(`UPDATE apis SET name=?, version=?, provider_id=?, provider_name=?, provider_website=?,
		description=?, spec=?, is_saved=?, saved_at=?, updated_at=? WHERE id=?`,
		rec.Name, rec.Version, rec.ProviderID, rec.ProviderName, rec.ProviderWebsite,
		rec.Description, string(rec.Spec), boolToInt(rec.IsSaved), rec.SavedAt, rec.UpdatedAt, rec.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll returns summaries for every record, newest first.
func (s *SQLiteStore) ListAll() ([]models.ApiSummary, error) {
	return s.list(`SELECT id,name,version,provider_id,description,is_saved,saved_at,created_at,updated_at
		FROM apis ORDER BY created_at DESC, id`)
}

// ListSaved returns summaries for saved records, newest first.
func (s *SQLiteStore) ListSaved() ([]models.ApiSummary, error) {
	return s.list(`SELECT id,name,version,provider_id,description,is_saved,saved_at,created_at,updated_at
		FROM apis WHERE is_saved=1 ORDER BY created_at DESC, id`)
}

func (s *SQLiteStore) list(query string) ([]models.ApiSummary, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ApiSummary, 0)
	for rows.Next() {
		var sum models.ApiSummary
		var saved int
		var savedAt sql.NullTime
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Version, &sum.ProviderID, &sum.Description,
			&saved, &savedAt, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		sum.IsSaved = saved != 0
		if savedAt.Valid {
			t := savedAt.Time
			sum.SavedAt = &t
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ApiRecord, error) {
	var rec models.ApiRecord
	var spec string
	var saved int
	var savedAt sql.NullTime
	err := row.Scan(&rec.ID, &rec.Name, &rec.Version, &rec.ProviderID, &rec.ProviderName,
		&rec.ProviderWebsite, &rec.Description, &spec, &saved, &savedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Spec = []byte(spec)
	rec.IsSaved = saved != 0
	if savedAt.Valid {
		t := savedAt.Time
		rec.SavedAt = &t
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

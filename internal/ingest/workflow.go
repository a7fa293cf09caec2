package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/prasenjit/spechub/internal/models"
	"github.com/prasenjit/spechub/internal/storage"
)

// ErrDecode indicates the uploaded file is not well-formed JSON or YAML.
var ErrDecode = errors.New("failed to decode spec file")

// ErrValidation indicates the decoded document is not a valid OpenAPI/Swagger
// spec. The wrapped message comes from the validator.
var ErrValidation = errors.New("invalid OpenAPI spec")

// ErrUnsupportedExt indicates the upload has a file extension other than
// .json, .yaml or .yml.
var ErrUnsupportedExt = errors.New("unsupported file extension")

// Outcome reports whether an upload created a new record or updated an
// existing one.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
)

// Result is the outcome of one ingestion run.
type Result struct {
	Outcome Outcome
	Record  *models.ApiRecord
}

// Workflow decodes, validates and persists uploaded spec files, reconciling
// the on-disk artifact with the record it belongs to.
type Workflow struct {
	store      storage.Storage
	uploadsDir string
}

// NewWorkflow creates an ingestion workflow writing artifacts under uploadsDir.
func NewWorkflow(store storage.Storage, uploadsDir string) *Workflow {
	return &Workflow{store: store, uploadsDir: uploadsDir}
}

// Ingest runs the full upload workflow for the file at tempPath. ext is the
// original upload's extension (".json", ".yaml" or ".yml"). Exactly one of
// {tempPath removed, tempPath renamed to <recordID><ext>} happens per call:
// an update discards the new artifact because the record already owns one,
// a create renames it so the filename matches the new record's identifier.
// On any error the temp file is removed so no orphan artifacts accumulate.
func (w *Workflow) Ingest(ctx context.Context, tempPath, ext, providerID string) (*Result, error) {
	ext = strings.ToLower(ext)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExt, ext)
	}

	content, err := os.ReadFile(tempPath)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, err
	}

	doc, err := decode(content, ext)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, err
	}

	specJSON, err := json.Marshal(doc)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if err := validate(ctx, doc, specJSON); err != nil {
		_ = os.Remove(tempPath)
		return nil, err
	}

	if providerID == "" {
		providerID = models.DefaultProviderID
	}

	info, _ := doc["info"].(map[string]any)
	name, _ := info["title"].(string)
	version, _ := info["version"].(string)
	description, _ := info["description"].(string)
	if description == "" {
		description = models.DefaultDescription
	}

	result, err := w.findOrCreate(name, version, providerID, description, specJSON)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, err
	}

	if result.Outcome == OutcomeUpdated {
		// The record keeps the artifact from its original upload.
		_ = os.Remove(tempPath)
		return result, nil
	}

	finalPath := filepath.Join(w.uploadsDir, result.Record.ID+ext)
	if err := os.Rename(tempPath, finalPath); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("failed to store spec artifact: %w", err)
	}

	return result, nil
}

// findOrCreate looks up the (name, version, providerId) triple and either
// updates the matching record in place or inserts a fresh one. A concurrent
// identical upload losing the insert race falls back to the update path via
// the store's uniqueness guarantee.
func (w *Workflow) findOrCreate(name, version, providerID, description string, specJSON []byte) (*Result, error) {
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := w.store.FindByTriple(name, version, providerID)
		if err == nil {
			existing.Spec = specJSON
			existing.Description = description
			existing.UpdatedAt = time.Now()
			if err := w.store.UpdateAPI(existing); err != nil {
				return nil, err
			}
			return &Result{Outcome: OutcomeUpdated, Record: existing}, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}

		now := time.Now()
		rec := &models.ApiRecord{
			ID:          uuid.New().String(),
			Name:        name,
			Version:     version,
			ProviderID:  providerID,
			Description: description,
			Spec:        specJSON,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err = w.store.CreateAPI(rec)
		if err == nil {
			return &Result{Outcome: OutcomeCreated, Record: rec}, nil
		}
		if !errors.Is(err, storage.ErrDuplicate) {
			return nil, err
		}
		// Lost the race to a concurrent identical upload; retry as update.
	}

	return nil, fmt.Errorf("failed to reconcile record for %s %s", name, version)
}

// decode parses the raw file content as YAML or JSON based on extension.
func decode(content []byte, ext string) (map[string]any, error) {
	doc := make(map[string]any)
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return doc, nil
	}
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return doc, nil
}

// validate checks the document against the OpenAPI 3 schema, converting
// Swagger 2.0 documents first. Validator messages are passed through.
func validate(ctx context.Context, doc map[string]any, specJSON []byte) error {
	if _, ok := doc["swagger"]; ok {
		var v2 openapi2.T
		if err := v2.UnmarshalJSON(specJSON); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		v3, err := openapi2conv.ToV3(&v2)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if err := v3.Validate(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	v3, err := loader.LoadFromData(specJSON)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := v3.Validate(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

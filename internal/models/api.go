package models

import (
	"encoding/json"
	"time"
)

// DefaultProviderID is assigned when an upload does not name a provider.
const DefaultProviderID = "unknown-provider"

// DefaultDescription is assigned when a spec carries no info.description.
const DefaultDescription = "No description provided"

// ApiRecord is the persisted wrapper around one uploaded API specification.
type ApiRecord struct {
	ID              string          `json:"_id"`
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	ProviderID      string          `json:"providerId"`
	ProviderName    string          `json:"providerName,omitempty"`
	ProviderWebsite string          `json:"providerWebsite,omitempty"`
	Description     string          `json:"description"`
	Spec            json.RawMessage `json:"spec,omitempty"`
	IsSaved         bool            `json:"isSaved"`
	SavedAt         *time.Time      `json:"savedAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Summary returns the listing projection, which omits the spec body so bulk
// listings never carry full documents.
func (a *ApiRecord) Summary() ApiSummary {
	return ApiSummary{
		ID:          a.ID,
		Name:        a.Name,
		Version:     a.Version,
		ProviderID:  a.ProviderID,
		Description: a.Description,
		IsSaved:     a.IsSaved,
		SavedAt:     a.SavedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// ApiSummary is the lightweight record shape used by listings.
type ApiSummary struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	ProviderID  string     `json:"providerId"`
	Description string     `json:"description"`
	IsSaved     bool       `json:"isSaved"`
	SavedAt     *time.Time `json:"savedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SaveInput carries the optional provider display metadata attached when a
// record is explicitly saved.
type SaveInput struct {
	ProviderName    *string `json:"providerName,omitempty"`
	ProviderWebsite *string `json:"providerWebsite,omitempty"`
	Description     *string `json:"description,omitempty"`
}

// GenerateInput is the request body for SDK generation.
type GenerateInput struct {
	ApiID    string `json:"apiId"`
	Language string `json:"language"`
}

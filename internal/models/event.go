package models

import "time"

// Event types emitted by the activity hub.
const (
	EventSpecCreated  = "spec.created"
	EventSpecUpdated  = "spec.updated"
	EventSpecSaved    = "spec.saved"
	EventSDKGenerated = "sdk.generated"
	EventSDKFailed    = "sdk.failed"
)

// Event is one activity record: something happened to a spec or an SDK.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ApiID     string    `json:"apiId"`
	ApiName   string    `json:"apiName,omitempty"`
	Language  string    `json:"language,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

package events

import (
	"time"

	"github.com/aristath/folio/internal/domain"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PricesUpdatedData carries a complete price snapshot. Each one replaces the
// previous snapshot entirely.
type PricesUpdatedData struct {
	Prices domain.PriceLookup `json:"prices"`
	AsOf   time.Time          `json:"asOf"`
	Crypto int                `json:"crypto"`
	Equity int                `json:"equity"`
}

// EventType returns the event type for PricesUpdatedData
func (d *PricesUpdatedData) EventType() EventType {
	return PricesUpdated
}

// BackupCompletedData describes an uploaded database backup
type BackupCompletedData struct {
	Key       string        `json:"key"`
	SizeBytes int64         `json:"size_bytes"`
	Duration  time.Duration `json:"duration"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

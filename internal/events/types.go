// Package events provides an in-process publish/subscribe bus for system
// events.
package events

import (
	"time"
)

// EventType represents different event types
type EventType string

const (
	PricesUpdated   EventType = "PRICES_UPDATED"
	BackupCompleted EventType = "BACKUP_COMPLETED"
	ErrorOccurred   EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

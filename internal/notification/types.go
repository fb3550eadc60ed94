// Package notification delivers user notifications with a cooldown window.
//
// The Service suppresses a notification whose title was already delivered inside
// the cooldown, then hands it to every Provider from a background worker so that
// callers never block on slow push services.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/handsoff-go/internal/errors"
)

// Sentinel errors
var (
	ErrServiceClosed = errors.NewStd("notification service closed")
	ErrQueueFull     = errors.NewStd("notification queue full")
)

// Notification is a single user notification
type Notification struct {
	ID        string
	Title     string
	Message   string
	Timestamp time.Time
}

// NewNotification creates a notification with a unique ID and timestamp
func NewNotification(title, message string) *Notification {
	return &Notification{
		ID:        uuid.New().String(),
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Provider is a delivery backend. Implementations must be safe for concurrent use.
type Provider interface {
	GetName() string
	Send(ctx context.Context, n *Notification) error
}

// Stats counts notification activity
type Stats struct {
	Requested  uint64 // Notify calls
	Suppressed uint64 // dropped by the cooldown window
	Dropped    uint64 // dropped because the queue was full
	Delivered  uint64 // provider sends that succeeded
	Failed     uint64 // provider sends that failed
}

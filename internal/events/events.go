// Package events publishes listing lifecycle notifications.
package events

import (
	"context"
	"time"
)

// Subjects for listing lifecycle events.
const (
	SubjectListingCreated = "listings.created"
	SubjectListingUpdated = "listings.updated"
	SubjectListingDeleted = "listings.deleted"
)

// ListingEvent is the payload of every listing subject.
type ListingEvent struct {
	ListingID  string    `json:"listingId"`
	OwnerID    string    `json:"ownerId"`
	Type       string    `json:"type,omitempty"`
	Category   string    `json:"category,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher sends an event on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close()
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, string, interface{}) error { return nil }

// Close implements Publisher.
func (Noop) Close() {}

package domain

import (
	"errors"
	"time"
)

var ErrCarrierUnavailable = errors.New("carrier unavailable")
var ErrMalformedResponse = errors.New("carrier response malformed")
var ErrNoPackages = errors.New("no packages registered")
var ErrInvalidTrackingCode = errors.New("invalid tracking code")
var ErrPackageNotFound = errors.New("package not found")

// TrackingEvent is one row of a shipment's tracking history as scraped from
// the carrier page. The timestamp is kept as free text: Jadlog renders it in
// a locale-specific format that is not guaranteed stable, so parsing it would
// couple us to the markup more than the rest of the scraper already does.
type TrackingEvent struct {
	Timestamp         string `json:"timestamp" bson:"timestamp"`
	OriginPoint       string `json:"origin_point" bson:"origin_point"`
	Status            string `json:"status" bson:"status"`
	DestinationPoint  string `json:"destination_point" bson:"destination_point"`
	DocumentReference string `json:"document_reference" bson:"document_reference"`
}

// TrackedPackage is the persisted record of one tracking code registered by
// one user. Events hold the full history exactly as last scraped, in
// document order; they are replaced wholesale on every refresh, never merged.
type TrackedPackage struct {
	UserID        int64           `json:"user_id" bson:"user_id"`
	TrackingCode  string          `json:"tracking_code" bson:"tracking_code"`
	Events        []TrackingEvent `json:"events" bson:"events"`
	LastCheckedAt time.Time       `json:"last_checked_at" bson:"last_checked_at"`
}

// EventsEqual reports whether two event sequences are structurally equal:
// same length and every corresponding event identical field by field.
// Order matters — a reordered history counts as a change.
func EventsEqual(a, b []TrackingEvent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

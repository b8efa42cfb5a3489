// internal/models/notification.go
package models

import "time"

// Notification records one message handed to the dispatcher.
type Notification struct {
	Address       string    `json:"address"`
	Text          string    `json:"text"`
	ApplicationID string    `json:"applicationId,omitempty"`
	Kind          string    `json:"kind"`
	Status        string    `json:"status"` // "sent", "failed"
	SentAt        time.Time `json:"sentAt"`
}

const (
	NotificationFirstOffer   = "first_offer"
	NotificationPriceChanged = "price_changed"
	NotificationOfferUpdated = "offer_updated"
	NotificationConfirmed    = "confirmed"

	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Package notify delivers text messages to opaque submitter and admin addresses.
package notify

import (
	"context"
	"strings"
	"time"

	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/metrics"
	"offer-ledger/internal/models"
)

// Sender delivers one message to one address.
type Sender interface {
	Send(ctx context.Context, address, text string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, address, text string) error

func (f SenderFunc) Send(ctx context.Context, address, text string) error {
	return f(ctx, address, text)
}

// Dispatcher sends through a Sender and never returns delivery failures:
// they are logged and counted so a transition is never aborted by them.
type Dispatcher struct {
	sender Sender
	admins []string
	log    logger.Logger
	now    func() time.Time
}

func NewDispatcher(sender Sender, admins []string, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		admins: admins,
		log:    logger.Component(log, "notify"),
		now:    time.Now,
	}
}

// Notify sends text to address and reports the outcome.
func (d *Dispatcher) Notify(ctx context.Context, address, text string) models.Notification {
	n := models.Notification{Address: address, Text: text, Status: models.NotificationSent, SentAt: d.now().UTC()}
	channel := Channel(address)

	if address == "" {
		n.Status = models.NotificationFailed
		metrics.Notifications.WithLabelValues(channel, n.Status).Inc()
		d.log.Warn("notification skipped: empty address", nil)
		return n
	}

	if err := d.sender.Send(ctx, address, text); err != nil {
		n.Status = models.NotificationFailed
		d.log.Warn("notification failed", map[string]interface{}{
			"address": address,
			"channel": channel,
			"error":   err,
		})
	}
	metrics.Notifications.WithLabelValues(channel, n.Status).Inc()
	return n
}

// NotifyAdmins sends text to every configured admin address.
func (d *Dispatcher) NotifyAdmins(ctx context.Context, text string) []models.Notification {
	out := make([]models.Notification, 0, len(d.admins))
	for _, admin := range d.admins {
		out = append(out, d.Notify(ctx, admin, text))
	}
	return out
}

// Channel names the delivery channel an address routes to.
func Channel(address string) string {
	switch {
	case strings.HasPrefix(address, SchemeSMS):
		return "sms"
	case strings.HasPrefix(address, SchemeEmail):
		return "email"
	default:
		return "telegram"
	}
}

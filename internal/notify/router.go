// internal/notify/router.go
package notify

import (
	"context"
	"fmt"
	"strings"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
)

const (
	SchemeSMS      = "sms:"
	SchemeEmail    = "email:"
	SchemeTelegram = "tg:"
)

// Router picks a Sender by address scheme and strips the scheme before
// delivery. Bare addresses are Telegram chat ids.
type Router struct {
	Telegram Sender
	SMS      Sender
	Email    Sender
}

func (r *Router) Send(ctx context.Context, address, text string) error {
	var (
		target Sender
		dest   string
	)
	switch {
	case strings.HasPrefix(address, SchemeSMS):
		target, dest = r.SMS, strings.TrimPrefix(address, SchemeSMS)
	case strings.HasPrefix(address, SchemeEmail):
		target, dest = r.Email, strings.TrimPrefix(address, SchemeEmail)
	default:
		target, dest = r.Telegram, strings.TrimPrefix(address, SchemeTelegram)
	}
	channel := Channel(address)
	if target == nil {
		return apperrors.NewNotificationSendFailedError(channel, fmt.Errorf("channel %s is not configured", channel))
	}
	if err := target.Send(ctx, dest, text); err != nil {
		return apperrors.NewNotificationSendFailedError(channel, err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{log: logger.Component(log, "notify-log")}
}

func (s *LogSender) Send(_ context.Context, address, text string) error {
	s.log.Info("notification", map[string]interface{}{"address": address, "text": text})
	return nil
}

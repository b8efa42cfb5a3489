// internal/lifecycle/reconcile.go
package lifecycle

import (
	"context"
	"strings"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/metrics"
	"offer-ledger/internal/models"
	"offer-ledger/internal/notify"
)

// CycleResult summarizes one reconciliation sweep.
type CycleResult struct {
	Rows      int `json:"rows"`
	Malformed int `json:"malformed"`
	Events    int `json:"events"`
	Saved     int `json:"saved"`
	Notified  int `json:"notified"`
}

type pendingNotice struct {
	app   *models.Application
	event *models.PriceEvent
}

// Reconcile reads the manager price column once, folds every change into
// the matching open record, saves all changed records in one batch and then
// notifies their submitters. A failed read or save leaves the store untouched.
func (e *Engine) Reconcile(ctx context.Context) (*CycleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prices, err := e.ledger.ReadManagerPrices(ctx)
	if err != nil {
		return nil, err
	}
	apps, err := e.store.All(ctx)
	if err != nil {
		return nil, err
	}

	byRow := e.openRecordsByRow(apps)
	result := &CycleResult{Rows: len(prices)}
	now := e.now().UTC()

	var (
		changed []*models.Application
		notices []pendingNotice
	)
	for i, raw := range prices {
		row := i + 1
		app, ok := byRow[row]
		if !ok {
			continue
		}
		if _, _, valid := models.ParsePrice(raw); !valid {
			if strings.TrimSpace(raw) != "" {
				result.Malformed++
				metrics.MalformedCells.Inc()
				e.log.Debug("price cell ignored", map[string]interface{}{
					"applicationId": app.ID,
					"error":         apperrors.NewMalformedLedgerValueError(row, raw).Error(),
				})
			}
			continue
		}

		event, err := app.ObserveManagerPrice(raw, now)
		if err != nil {
			e.log.Warn("price not applied", map[string]interface{}{
				"applicationId": app.ID,
				"ledgerRow":     row,
				"error":         err,
			})
			continue
		}
		if event == nil {
			continue
		}
		metrics.PriceEvents.WithLabelValues(string(event.Kind)).Inc()
		changed = append(changed, app)
		notices = append(notices, pendingNotice{app: app, event: event})
	}
	result.Events = len(notices)

	if len(changed) == 0 {
		return result, nil
	}
	if err := e.store.PutMany(ctx, changed); err != nil {
		return nil, err
	}
	result.Saved = len(changed)

	for _, n := range notices {
		e.log.Info("manager price applied", map[string]interface{}{
			"applicationId": n.app.ID,
			"ledgerRow":     n.app.Row(),
			"kind":          n.event.Kind,
			"price":         n.event.Current,
		})
		e.record(ctx, n.app, n.event.FromStatus, models.TriggerManagerPrice, "reconcile")
		text := priceNotice(n.event, ownerPosition(apps, n.app), n.app.Offer)
		if sent := e.notifier.Notify(ctx, n.app.NotifyAddress, text); sent.Status == models.NotificationSent {
			result.Notified++
		}
	}
	return result, nil
}

// openRecordsByRow indexes records the sweep may touch. Closed records are
// left out so stale ledger content in their row is never consumed.
func (e *Engine) openRecordsByRow(apps []*models.Application) map[int]*models.Application {
	byRow := make(map[int]*models.Application, len(apps))
	for _, app := range apps {
		if app.Status.Closed() || !app.HasRow() {
			continue
		}
		if other, dup := byRow[app.Row()]; dup {
			e.log.Error("ledger row held by two open records", map[string]interface{}{
				"ledgerRow": app.Row(),
				"kept":      other.ID,
				"skipped":   app.ID,
			})
			continue
		}
		byRow[app.Row()] = app
	}
	return byRow
}

func priceNotice(ev *models.PriceEvent, number int, offer models.Offer) string {
	switch {
	case ev.Kind == models.PriceFirstOffer:
		return notify.FirstOffer(number, offer, ev.Current)
	case ev.FromStatus == models.StatusWaiting:
		return notify.PriceChanged(number, offer, ev.Previous, ev.Current)
	default:
		return notify.OfferUpdated(ev.Current)
	}
}

// ownerPosition is the 1-based number of app among its owner's records.
func ownerPosition(apps []*models.Application, app *models.Application) int {
	n := 0
	for _, a := range apps {
		if a.OwnerID != app.OwnerID {
			continue
		}
		n++
		if a.ID == app.ID {
			return n
		}
	}
	return n
}

// internal/lifecycle/deletion.go
package lifecycle

import (
	"context"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/metrics"
	"offer-ledger/internal/models"
)

// Pauser suspends the reconciliation loop. Suspensions are counted.
type Pauser interface {
	Suspend(ctx context.Context) error
	Resume(ctx context.Context) error
}

// Coordinator runs soft and permanent deletions.
type Coordinator struct {
	engine *Engine
	pauser Pauser
	settle time.Duration
	log    logger.Logger
}

func NewCoordinator(engine *Engine, pauser Pauser, settle time.Duration, log logger.Logger) *Coordinator {
	return &Coordinator{
		engine: engine,
		pauser: pauser,
		settle: settle,
		log:    logger.Component(log, "deletion"),
	}
}

// SoftDelete marks the record deleted. The loop keeps running since no row
// moves.
func (c *Coordinator) SoftDelete(ctx context.Context, id, actor string) (*models.Application, error) {
	return c.engine.SoftDelete(ctx, id, actor)
}

// PurgeResult describes a completed permanent deletion.
type PurgeResult struct {
	ApplicationID string `json:"applicationId"`
	Row           int    `json:"row,omitempty"`
	Renumbered    int    `json:"renumbered"`
}

// Purge permanently removes a record and its ledger row and renumbers every
// record below it. The reconciliation loop is suspended for the whole
// operation and resumed after the settle delay even when a step fails.
// Only soft-deleted records are purged unless force is set.
func (c *Coordinator) Purge(ctx context.Context, id string, force bool, actor string) (*PurgeResult, error) {
	if err := c.pauser.Suspend(ctx); err != nil {
		return nil, err
	}
	metrics.ReconcileSuspended.Inc()
	defer c.resume(ctx, id)

	return c.engine.purge(ctx, id, force, actor)
}

// resume waits out the settle delay, then releases the loop. A cancelled
// ctx cuts the wait short but never skips the release.
func (c *Coordinator) resume(ctx context.Context, id string) {
	if c.settle > 0 {
		t := time.NewTimer(c.settle)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	if err := c.pauser.Resume(context.WithoutCancel(ctx)); err != nil {
		c.log.Error("reconciliation not resumed", map[string]interface{}{
			"applicationId": id,
			"error":         err,
		})
	}
	metrics.ReconcileSuspended.Dec()
}

func (e *Engine) purge(ctx context.Context, id string, force bool, actor string) (*PurgeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	app, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !force {
		if _, err := models.Next(app.Status, models.TriggerPurge); err != nil {
			return nil, apperrors.NewInvalidTransitionError(id, err)
		}
	}
	prev := app.Status

	if err := e.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	res := &PurgeResult{ApplicationID: id}
	app.Status = models.StatusPurged
	e.record(ctx, app, prev, models.TriggerPurge, actor)

	if !app.HasRow() {
		return res, nil
	}
	row := app.Row()
	res.Row = row

	if err := e.ledger.ShiftPriceColumn(ctx, row); err != nil {
		e.logOrphanedRow(id, row, "shift_price_column", err)
		return nil, err
	}
	if err := e.ledger.DeleteRow(ctx, row); err != nil {
		e.logOrphanedRow(id, row, "delete_row", err)
		return nil, err
	}

	renumbered, err := e.renumberBelow(ctx, row)
	if err != nil {
		return nil, err
	}
	res.Renumbered = renumbered

	e.log.Info("application purged", map[string]interface{}{
		"applicationId": id,
		"ledgerRow":     row,
		"renumbered":    renumbered,
	})
	return res, nil
}

// renumberBelow decrements the row of every record below the removed row.
// logOrphanedRow reports a ledger row whose record is already gone from the
// store; an operator has to remove it.
func (e *Engine) logOrphanedRow(id string, row int, step string, err error) {
	e.log.Error("purged record left its ledger row", map[string]interface{}{
		"applicationId": id,
		"ledgerRow":     row,
		"step":          step,
		"error":         err,
	})
}

func (e *Engine) renumberBelow(ctx context.Context, removed int) (int, error) {
	apps, err := e.store.All(ctx)
	if err != nil {
		return 0, err
	}
	var shifted []*models.Application
	for _, a := range apps {
		if a.HasRow() && a.Row() > removed {
			a.SetRow(a.Row() - 1)
			shifted = append(shifted, a)
		}
	}
	if len(shifted) == 0 {
		return 0, nil
	}
	if err := e.store.PutMany(ctx, shifted); err != nil {
		return 0, err
	}
	metrics.RowsRenumbered.Add(float64(len(shifted)))
	return len(shifted), nil
}

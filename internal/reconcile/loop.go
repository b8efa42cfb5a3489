// Package reconcile runs the background poll that folds manager prices from
// the ledger into the record store.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/metrics"
	"offer-ledger/internal/common/observability"
	"offer-ledger/internal/lifecycle"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Sweeper performs one reconciliation sweep.
type Sweeper interface {
	Reconcile(ctx context.Context) (*lifecycle.CycleResult, error)
}

const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Loop calls the Sweeper on a fixed interval unless the Gate is suspended.
// A failed or panicking cycle is logged and retried on the next tick.
type Loop struct {
	sweeper  Sweeper
	gate     Gate
	interval time.Duration
	obs      *observability.Observability
	log      logger.Logger
}

func NewLoop(sweeper Sweeper, gate Gate, interval time.Duration, obs *observability.Observability, log logger.Logger) *Loop {
	return &Loop{
		sweeper:  sweeper,
		gate:     gate,
		interval: interval,
		obs:      obs,
		log:      logger.Component(log, "reconcile"),
	}
}

// Run cycles immediately and then every interval until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("reconciliation loop started", map[string]interface{}{"interval": l.interval.String()})
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.RunOnce(ctx)
		select {
		case <-ctx.Done():
			l.log.Info("reconciliation loop stopped", nil)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single cycle and reports its outcome.
func (l *Loop) RunOnce(ctx context.Context) (string, *lifecycle.CycleResult, error) {
	start := time.Now()
	ctx, span := l.obs.StartSpan(ctx, "reconcile.cycle")
	defer span.End()

	outcome, res, err := l.cycle(ctx)

	elapsed := time.Since(start)
	metrics.ReconcileCycles.WithLabelValues(outcome).Inc()
	metrics.ReconcileDuration.Observe(elapsed.Seconds())
	l.obs.RecordCycle(ctx, elapsed, outcome)
	span.SetAttributes(attribute.String("reconcile.result", outcome))

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.log.Warn("reconciliation cycle failed", map[string]interface{}{
			"error":      err,
			"durationMs": elapsed.Milliseconds(),
		})
	case res != nil && res.Events > 0:
		span.SetAttributes(attribute.Int("reconcile.events", res.Events))
		l.log.Info("reconciliation cycle applied changes", map[string]interface{}{
			"events":    res.Events,
			"saved":     res.Saved,
			"notified":  res.Notified,
			"malformed": res.Malformed,
		})
	}
	return outcome, res, err
}

func (l *Loop) cycle(ctx context.Context) (outcome string, res *lifecycle.CycleResult, err error) {
	suspended, err := l.gate.Suspended(ctx)
	if err != nil {
		// An unreadable pause signal may hide a running purge.
		return ResultSkipped, nil, err
	}
	if suspended {
		l.log.Debug("reconciliation suspended, cycle skipped", nil)
		return ResultSkipped, nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			outcome, res, err = ResultFailed, nil, fmt.Errorf("reconciliation panic: %v", r)
		}
	}()

	res, err = l.sweeper.Reconcile(ctx)
	if err != nil {
		return ResultFailed, nil, err
	}
	return ResultOK, res, nil
}

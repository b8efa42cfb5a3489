// internal/reconcile/loop_test.go
package reconcile

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/metrics"
	"offer-ledger/internal/lifecycle"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls atomic.Int32
	fn    func(n int32) (*lifecycle.CycleResult, error)
}

func (f *fakeSweeper) Reconcile(context.Context) (*lifecycle.CycleResult, error) {
	n := f.calls.Add(1)
	if f.fn == nil {
		return &lifecycle.CycleResult{}, nil
	}
	return f.fn(n)
}

type brokenGate struct{ LocalGate }

func (*brokenGate) Suspended(context.Context) (bool, error) {
	return false, stderrors.New("redis down")
}

// ==========================
// RunOnce Tests
// ==========================

func TestRunOnce_OK(t *testing.T) {
	sweeper := &fakeSweeper{fn: func(int32) (*lifecycle.CycleResult, error) {
		return &lifecycle.CycleResult{Rows: 4, Events: 1, Saved: 1, Notified: 1}, nil
	}}
	loop := NewLoop(sweeper, NewLocalGate(), time.Minute, nil, logger.NewTestLogger(t))
	before := testutil.ToFloat64(metrics.ReconcileCycles.WithLabelValues(ResultOK))

	outcome, res, err := loop.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ResultOK, outcome)
	assert.Equal(t, 1, res.Events)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ReconcileCycles.WithLabelValues(ResultOK)))
}

func TestRunOnce_SkipsWhileSuspended(t *testing.T) {
	ctx := context.Background()
	sweeper := &fakeSweeper{}
	gate := NewLocalGate()
	require.NoError(t, gate.Suspend(ctx))
	loop := NewLoop(sweeper, gate, time.Minute, nil, logger.NewNoOpLogger())

	outcome, _, err := loop.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, ResultSkipped, outcome)
	assert.Equal(t, int32(0), sweeper.calls.Load())

	require.NoError(t, gate.Resume(ctx))
	outcome, _, _ = loop.RunOnce(ctx)
	assert.Equal(t, ResultOK, outcome)
}

func TestRunOnce_UnreadableGateSkips(t *testing.T) {
	sweeper := &fakeSweeper{}
	loop := NewLoop(sweeper, &brokenGate{}, time.Minute, nil, logger.NewNoOpLogger())

	outcome, _, err := loop.RunOnce(context.Background())

	assert.Error(t, err)
	assert.Equal(t, ResultSkipped, outcome)
	assert.Equal(t, int32(0), sweeper.calls.Load())
}

func TestRunOnce_FailureIsReported(t *testing.T) {
	sweeper := &fakeSweeper{fn: func(int32) (*lifecycle.CycleResult, error) {
		return nil, stderrors.New("ledger unavailable")
	}}
	loop := NewLoop(sweeper, NewLocalGate(), time.Minute, nil, logger.NewNoOpLogger())

	outcome, res, err := loop.RunOnce(context.Background())

	assert.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, ResultFailed, outcome)
}

func TestRunOnce_RecoversPanic(t *testing.T) {
	sweeper := &fakeSweeper{fn: func(int32) (*lifecycle.CycleResult, error) {
		panic("index out of range")
	}}
	loop := NewLoop(sweeper, NewLocalGate(), time.Minute, nil, logger.NewNoOpLogger())

	outcome, _, err := loop.RunOnce(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index out of range")
	assert.Equal(t, ResultFailed, outcome)
}

// ==========================
// Run Tests
// ==========================

func TestRun_SurvivesFailedCyclesUntilCancelled(t *testing.T) {
	sweeper := &fakeSweeper{fn: func(n int32) (*lifecycle.CycleResult, error) {
		if n%2 == 1 {
			return nil, stderrors.New("transient")
		}
		return &lifecycle.CycleResult{}, nil
	}}
	loop := NewLoop(sweeper, NewLocalGate(), 5*time.Millisecond, nil, logger.NewNoOpLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 4 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

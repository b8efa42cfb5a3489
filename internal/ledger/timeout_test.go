// internal/ledger/timeout_test.go
package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deadlineSheet struct {
	*MemorySheet
	deadline time.Time
}

func (d *deadlineSheet) ReadColumn(ctx context.Context, col int) ([]string, error) {
	d.deadline, _ = ctx.Deadline()
	return d.MemorySheet.ReadColumn(ctx, col)
}

func TestWithTimeout_SetsDeadline(t *testing.T) {
	inner := &deadlineSheet{MemorySheet: NewMemorySheet()}
	sheet := WithTimeout(inner, time.Minute)

	_, err := sheet.ReadColumn(context.Background(), 1)

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), inner.deadline, 5*time.Second)
}

func TestWithTimeout_Disabled(t *testing.T) {
	inner := NewMemorySheet()

	assert.Same(t, inner, WithTimeout(inner, 0))
}

// internal/ledger/timeout.go
package ledger

import (
	"context"
	"time"
)

// WithTimeout bounds every call on s by d. A non-positive d returns s unchanged.
func WithTimeout(s Sheet, d time.Duration) Sheet {
	if d <= 0 {
		return s
	}
	return &timeoutSheet{next: s, timeout: d}
}

type timeoutSheet struct {
	next    Sheet
	timeout time.Duration
}

func (t *timeoutSheet) NextRow(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.NextRow(ctx)
}

func (t *timeoutSheet) WriteRow(ctx context.Context, row int, values []string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.WriteRow(ctx, row, values)
}

func (t *timeoutSheet) WriteCell(ctx context.Context, row, col int, value string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.WriteCell(ctx, row, col, value)
}

func (t *timeoutSheet) WriteColumn(ctx context.Context, col, startRow int, values []string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.WriteColumn(ctx, col, startRow, values)
}

func (t *timeoutSheet) ReadColumn(ctx context.Context, col int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.ReadColumn(ctx, col)
}

func (t *timeoutSheet) Colorize(ctx context.Context, r Range, kind ColorKind) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Colorize(ctx, r, kind)
}

func (t *timeoutSheet) DeleteRow(ctx context.Context, row int) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.DeleteRow(ctx, row)
}

// internal/ledger/memory.go
package ledger

import (
	"context"
	"fmt"
	"sync"
)

// MemorySheet is an in-process Sheet used by the memory driver and tests.
type MemorySheet struct {
	mu     sync.Mutex
	rows   [][]string
	colors map[[2]int]ColorKind

	// Fail, when set, is consulted before every call; a non-nil result is returned.
	Fail func(op string) error
}

func NewMemorySheet() *MemorySheet {
	return &MemorySheet{colors: make(map[[2]int]ColorKind)}
}

func (m *MemorySheet) check(op string) error {
	if m.Fail != nil {
		return m.Fail(op)
	}
	return nil
}

func (m *MemorySheet) ensure(row, col int) {
	for len(m.rows) < row {
		m.rows = append(m.rows, nil)
	}
	for len(m.rows[row-1]) < col {
		m.rows[row-1] = append(m.rows[row-1], "")
	}
}

func (m *MemorySheet) NextRow(context.Context) (int, error) {
	if err := m.check("next_row"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	last := 0
	for i, r := range m.rows {
		if len(r) > 0 && r[0] != "" {
			last = i + 1
		}
	}
	return last + 1, nil
}

func (m *MemorySheet) WriteRow(_ context.Context, row int, values []string) error {
	if err := m.check("write_row"); err != nil {
		return err
	}
	if row < 1 {
		return fmt.Errorf("invalid row %d", row)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(row, len(values))
	copy(m.rows[row-1], values)
	return nil
}

func (m *MemorySheet) WriteCell(_ context.Context, row, col int, value string) error {
	if err := m.check("write_cell"); err != nil {
		return err
	}
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell %d:%d", row, col)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(row, col)
	m.rows[row-1][col-1] = value
	return nil
}

func (m *MemorySheet) WriteColumn(_ context.Context, col, startRow int, values []string) error {
	if err := m.check("write_column"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range values {
		m.ensure(startRow+i, col)
		m.rows[startRow+i-1][col-1] = v
	}
	return nil
}

// ReadColumn trims trailing empty cells the way the Sheets API does.
func (m *MemorySheet) ReadColumn(_ context.Context, col int) ([]string, error) {
	if err := m.check("read_column"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.rows))
	last := 0
	for i, r := range m.rows {
		if col-1 < len(r) {
			out[i] = r[col-1]
			if out[i] != "" {
				last = i + 1
			}
		}
	}
	return out[:last], nil
}

func (m *MemorySheet) Colorize(_ context.Context, r Range, kind ColorKind) error {
	if err := m.check("colorize"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartCol; col <= r.EndCol; col++ {
			if kind == Neutral {
				delete(m.colors, [2]int{row, col})
				continue
			}
			m.colors[[2]int{row, col}] = kind
		}
	}
	return nil
}

// DeleteRow removes the row and shifts cells and colors below it up.
func (m *MemorySheet) DeleteRow(_ context.Context, row int) error {
	if err := m.check("delete_row"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if row >= 1 && row <= len(m.rows) {
		m.rows = append(m.rows[:row-1], m.rows[row:]...)
	}
	shifted := make(map[[2]int]ColorKind, len(m.colors))
	for k, v := range m.colors {
		switch {
		case k[0] < row:
			shifted[k] = v
		case k[0] > row:
			shifted[[2]int{k[0] - 1, k[1]}] = v
		}
	}
	m.colors = shifted
	return nil
}

// Value returns the cell at row, col or "".
func (m *MemorySheet) Value(row, col int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row < 1 || row > len(m.rows) || col < 1 || col > len(m.rows[row-1]) {
		return ""
	}
	return m.rows[row-1][col-1]
}

// ColorAt returns the overlay at row, col.
func (m *MemorySheet) ColorAt(row, col int) ColorKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.colors[[2]int{row, col}]
}

// Rows returns the number of stored rows.
func (m *MemorySheet) Rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

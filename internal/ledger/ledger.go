// Package ledger mirrors applications into the shared spreadsheet and reads
// the manager price column back.
package ledger

import (
	"context"
	"time"

	"offer-ledger/internal/common/config"
	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/metrics"
)

// ColorKind is the status overlay painted on a cell or row.
type ColorKind int

const (
	Neutral ColorKind = iota
	Red
	Green
	Yellow
	DeepRed
)

func (k ColorKind) String() string {
	switch k {
	case Red:
		return "red"
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	case DeepRed:
		return "deep-red"
	default:
		return "neutral"
	}
}

// RGB is a background color with components in [0, 1].
type RGB struct {
	Red, Green, Blue float64
}

// RGB returns the background color for k. Neutral is white.
func (k ColorKind) RGB() RGB {
	switch k {
	case Red:
		return RGB{1, 0.8, 0.8}
	case Green:
		return RGB{0.8, 1, 0.8}
	case Yellow:
		return RGB{1, 1, 0.8}
	case DeepRed:
		return RGB{222.0 / 255.0, 0, 0}
	default:
		return RGB{1, 1, 1}
	}
}

// Range is an inclusive, 1-based block of cells.
type Range struct {
	StartRow, EndRow int
	StartCol, EndCol int
}

// Cell is the single-cell range at row, col.
func Cell(row, col int) Range {
	return Range{StartRow: row, EndRow: row, StartCol: col, EndCol: col}
}

// Sheet is one worksheet. Rows and columns are 1-based.
type Sheet interface {
	// NextRow is the row an append would write to: one past the last
	// non-empty cell in column 1.
	NextRow(ctx context.Context) (int, error)
	WriteRow(ctx context.Context, row int, values []string) error
	WriteCell(ctx context.Context, row, col int, value string) error
	// WriteColumn writes values downward from startRow.
	WriteColumn(ctx context.Context, col, startRow int, values []string) error
	// ReadColumn returns the column from row 1; index i holds row i+1.
	ReadColumn(ctx context.Context, col int) ([]string, error)
	Colorize(ctx context.Context, r Range, kind ColorKind) error
	// DeleteRow removes the row; rows below shift up by one.
	DeleteRow(ctx context.Context, row int) error
}

// Ledger is the pair of worksheets backing the negotiation: the main sheet
// with data and manager prices, and the price sheet with the status cell.
type Ledger struct {
	main          Sheet
	price         Sheet
	separatePrice bool
	layout        Layout
	log           logger.Logger
}

// New builds a Ledger. A nil price sheet, or main itself, means the status
// cell lives on main.
func New(main, price Sheet, layout Layout, log logger.Logger) *Ledger {
	if price == main {
		price = nil
	}
	l := &Ledger{main: main, price: price, separatePrice: price != nil, layout: layout,
		log: logger.Component(log, "ledger")}
	if price == nil {
		l.price = main
	}
	return l
}

func (l *Ledger) Layout() Layout { return l.layout }

func (l *Ledger) fail(op string, row int, err error) error {
	metrics.LedgerErrors.WithLabelValues(op).Inc()
	l.log.Warn("ledger call failed", map[string]interface{}{"op": op, "row": row, "error": err.Error()})
	return apperrors.NewLedgerUnavailableError(op, err)
}

// AppendRow writes a new application row at the end of the main sheet and
// returns its index. Not idempotent: call it once per filing.
func (l *Ledger) AppendRow(ctx context.Context, fields RowFields, now time.Time) (int, error) {
	row, err := l.main.NextRow(ctx)
	if err != nil {
		return 0, l.fail("append_row", 0, err)
	}
	if row < l.layout.RowStart {
		row = l.layout.RowStart
	}
	if err := l.main.WriteRow(ctx, row, l.layout.Render(row, fields, now)); err != nil {
		return 0, l.fail("append_row", row, err)
	}
	return row, nil
}

// ReadManagerPrices returns the manager price column; index i holds row i+1.
func (l *Ledger) ReadManagerPrices(ctx context.Context) ([]string, error) {
	values, err := l.main.ReadColumn(ctx, l.layout.ManagerPrice)
	if err != nil {
		return nil, l.fail("read_column", 0, err)
	}
	return values, nil
}

// MarkPrice paints the price negotiation cell of row.
func (l *Ledger) MarkPrice(ctx context.Context, row int, kind ColorKind) error {
	if err := l.price.Colorize(ctx, Cell(row, l.layout.PriceColor), kind); err != nil {
		return l.fail("colorize", row, err)
	}
	return nil
}

// MarkDeleted paints the whole main row and the price cell deep red. Both
// writes are attempted; the first failure is returned.
func (l *Ledger) MarkDeleted(ctx context.Context, row int) error {
	var firstErr error
	full := Range{StartRow: row, EndRow: row, StartCol: 1, EndCol: l.layout.MaxColumns}
	if err := l.main.Colorize(ctx, full, DeepRed); err != nil {
		firstErr = l.fail("colorize", row, err)
	}
	if l.separatePrice {
		if err := l.price.Colorize(ctx, Cell(row, l.layout.PriceColor), DeepRed); err != nil && firstErr == nil {
			firstErr = l.fail("colorize", row, err)
		}
	}
	return firstErr
}

// ShiftPriceColumn clears the price cell colors from row downward and moves
// the price column values up by one starting at row, clearing the vacated
// last cell. It is a no-op when the price cell lives on the main sheet,
// since deleting the main row already shifts it.
func (l *Ledger) ShiftPriceColumn(ctx context.Context, row int) error {
	if !l.separatePrice {
		return nil
	}
	col := l.layout.PriceColor
	values, err := l.price.ReadColumn(ctx, col)
	if err != nil {
		return l.fail("read_column", row, err)
	}
	last := len(values)
	if last < row {
		last = row
	}
	if err := l.price.Colorize(ctx, Range{StartRow: row, EndRow: last, StartCol: col, EndCol: col}, Neutral); err != nil {
		return l.fail("colorize", row, err)
	}

	shifted := make([]string, 0, last-row+1)
	for r := row + 1; r <= last; r++ {
		shifted = append(shifted, cellAt(values, r))
	}
	shifted = append(shifted, "")
	if err := l.price.WriteColumn(ctx, col, row, shifted); err != nil {
		return l.fail("write_column", row, err)
	}
	return nil
}

// DeleteRow physically removes row from the main sheet. Not idempotent.
func (l *Ledger) DeleteRow(ctx context.Context, row int) error {
	if err := l.main.DeleteRow(ctx, row); err != nil {
		return l.fail("delete_row", row, err)
	}
	return nil
}

func cellAt(values []string, row int) string {
	if row < 1 || row > len(values) {
		return ""
	}
	return values[row-1]
}

// Layout places application fields into columns.
type Layout struct {
	Sequence     int
	Date         int
	Name         int
	Farm         int
	TaxID        int
	Group        int
	Culture      int
	Quantity     int
	Location     int
	Extra        int
	PaymentForm  int
	Currency     int
	Price        int
	ManagerPrice int
	Phone        int
	Owner        int
	PriceColor   int
	MaxColumns   int
	RowStart     int
}

// NewLayout maps the configured column indices.
func NewLayout(cfg config.LedgerConfig) Layout {
	c := cfg.Columns
	return Layout{
		Sequence:     c.Sequence,
		Date:         c.Date,
		Name:         c.Name,
		Farm:         c.Farm,
		TaxID:        c.TaxID,
		Group:        c.Group,
		Culture:      c.Culture,
		Quantity:     c.Quantity,
		Location:     c.Location,
		Extra:        c.Extra,
		PaymentForm:  c.PaymentForm,
		Currency:     c.Currency,
		Price:        c.Price,
		ManagerPrice: c.ManagerPrice,
		Phone:        c.Phone,
		Owner:        c.Owner,
		PriceColor:   c.PriceColor,
		MaxColumns:   cfg.MaxColumns,
		RowStart:     cfg.RowStart,
	}
}

// DefaultLayout is the column layout of the production sheet.
func DefaultLayout() Layout {
	return Layout{
		Sequence: 1, Date: 2, Name: 3, Farm: 4, TaxID: 5, Group: 6, Culture: 7,
		Quantity: 8, Location: 9, Extra: 10, PaymentForm: 11, Currency: 12,
		Price: 13, ManagerPrice: 15, Phone: 16, Owner: 52, PriceColor: 12,
		MaxColumns: 52, RowStart: 2,
	}
}

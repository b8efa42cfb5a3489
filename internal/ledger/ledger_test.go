// internal/ledger/ledger_test.go
package ledger

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var filedAt = time.Date(2024, 7, 3, 9, 30, 0, 0, time.UTC)

func testFields() RowFields {
	return RowFields{
		OwnerID:  "777",
		FullName: "Ivan Petrenko",
		Offer: models.Offer{
			FarmName:    "FG Kolos",
			TaxID:       "12345678",
			Group:       "2",
			Culture:     "Wheat",
			Quantity:    "25",
			Region:      "Kyivska",
			District:    "Bilotserkivskyi",
			City:        "Uzyn",
			ExtraFields: map[string]string{"vologhist": "14", "bilok": "12"},
			PaymentForm: "cash",
			Currency:    "dollar",
			Price:       "200",
			Phone:       "+380501112233",
		},
	}
}

func newTestLedger(t *testing.T) (*Ledger, *MemorySheet, *MemorySheet) {
	t.Helper()
	main, price := NewMemorySheet(), NewMemorySheet()
	require.NoError(t, main.WriteRow(context.Background(), 1, []string{"№", "Дата"}))
	return New(main, price, DefaultLayout(), logger.NewTestLogger(t)), main, price
}

// ==========================
// Append Tests
// ==========================

func TestAppendRow_AllocatesSequentialRows(t *testing.T) {
	l, main, _ := newTestLedger(t)
	ctx := context.Background()

	first, err := l.AppendRow(ctx, testFields(), filedAt)
	require.NoError(t, err)
	second, err := l.AppendRow(ctx, testFields(), filedAt)
	require.NoError(t, err)

	assert.Equal(t, 2, first)
	assert.Equal(t, 3, second)
	assert.Equal(t, "1", main.Value(2, 1))
	assert.Equal(t, "2", main.Value(3, 1))
}

func TestAppendRow_RendersLayout(t *testing.T) {
	l, main, _ := newTestLedger(t)

	row, err := l.AppendRow(context.Background(), testFields(), filedAt)
	require.NoError(t, err)

	assert.Equal(t, "03.07", main.Value(row, 2))
	assert.Equal(t, "Ivan\nPetrenko", main.Value(row, 3))
	assert.Equal(t, "FG Kolos", main.Value(row, 4))
	assert.Equal(t, "25 Т", main.Value(row, 8))
	assert.Equal(t, "Область: Kyivska\nРайон: Bilotserkivskyi\nНас. пункт: Uzyn", main.Value(row, 9))
	assert.Equal(t, "Білок: 12\nВологість: 14", main.Value(row, 10))
	assert.Equal(t, "Долар $", main.Value(row, 12))
	assert.Equal(t, "200", main.Value(row, 13))
	assert.Equal(t, "", main.Value(row, 15))
	assert.Equal(t, "+380501112233", main.Value(row, 16))
	assert.Equal(t, "777", main.Value(row, 52))
}

func TestAppendRow_WritesEmptyManagerPriceOverStaleCell(t *testing.T) {
	l, main, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, main.WriteCell(ctx, 2, DefaultLayout().ManagerPrice, "999"))

	row, err := l.AppendRow(ctx, testFields(), filedAt)

	require.NoError(t, err)
	assert.Equal(t, 2, row)
	assert.Equal(t, "", main.Value(row, DefaultLayout().ManagerPrice))
	prices, err := l.ReadManagerPrices(ctx)
	require.NoError(t, err)
	assert.NotContains(t, prices, "999")
}

func TestAppendRow_EmptySheetStartsAtRowStart(t *testing.T) {
	l := New(NewMemorySheet(), nil, DefaultLayout(), logger.NewNoOpLogger())

	row, err := l.AppendRow(context.Background(), testFields(), filedAt)

	require.NoError(t, err)
	assert.Equal(t, 2, row)
}

func TestAppendRow_FailureIsLedgerUnavailable(t *testing.T) {
	l, main, _ := newTestLedger(t)
	main.Fail = func(op string) error {
		if op == "write_row" {
			return fmt.Errorf("quota exceeded")
		}
		return nil
	}

	_, err := l.AppendRow(context.Background(), testFields(), filedAt)

	assert.True(t, stderrors.Is(err, apperrors.ErrLedgerUnavailable))
}

// ==========================
// Color Tests
// ==========================

func TestMarkPrice_UsesPriceSheet(t *testing.T) {
	l, main, price := newTestLedger(t)

	require.NoError(t, l.MarkPrice(context.Background(), 5, Green))

	assert.Equal(t, Green, price.ColorAt(5, 12))
	assert.Equal(t, Neutral, main.ColorAt(5, 12))
}

func TestMarkDeleted_PaintsRowAndPriceCell(t *testing.T) {
	l, main, price := newTestLedger(t)

	require.NoError(t, l.MarkDeleted(context.Background(), 4))

	assert.Equal(t, DeepRed, main.ColorAt(4, 1))
	assert.Equal(t, DeepRed, main.ColorAt(4, 52))
	assert.Equal(t, Neutral, main.ColorAt(5, 1))
	assert.Equal(t, DeepRed, price.ColorAt(4, 12))
}

func TestMarkDeleted_AttemptsBothWrites(t *testing.T) {
	l, main, price := newTestLedger(t)
	main.Fail = func(string) error { return fmt.Errorf("boom") }

	err := l.MarkDeleted(context.Background(), 4)

	assert.True(t, stderrors.Is(err, apperrors.ErrLedgerUnavailable))
	assert.Equal(t, DeepRed, price.ColorAt(4, 12))
}

func TestColorKind_RGB(t *testing.T) {
	assert.Equal(t, RGB{1, 0.8, 0.8}, Red.RGB())
	assert.Equal(t, RGB{0.8, 1, 0.8}, Green.RGB())
	assert.Equal(t, RGB{1, 1, 0.8}, Yellow.RGB())
	assert.InDelta(t, 0.8706, DeepRed.RGB().Red, 0.0001)
	assert.Equal(t, "deep-red", DeepRed.String())
}

// ==========================
// Structural Deletion Tests
// ==========================

func TestShiftPriceColumn(t *testing.T) {
	l, _, price := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, price.WriteColumn(ctx, 12, 1, []string{"h", "a", "b", "c", "d"}))
	require.NoError(t, price.Colorize(ctx, Cell(3, 12), Red))
	require.NoError(t, price.Colorize(ctx, Cell(4, 12), Green))
	require.NoError(t, price.Colorize(ctx, Cell(2, 12), Yellow))

	require.NoError(t, l.ShiftPriceColumn(ctx, 3))

	values, err := price.ReadColumn(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, []string{"h", "a", "c", "d"}, values)
	assert.Equal(t, Yellow, price.ColorAt(2, 12))
	assert.Equal(t, Neutral, price.ColorAt(3, 12))
	assert.Equal(t, Neutral, price.ColorAt(4, 12))
}

func TestShiftPriceColumn_BeyondLastValue(t *testing.T) {
	l, _, price := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, price.Colorize(ctx, Cell(9, 12), Red))

	require.NoError(t, l.ShiftPriceColumn(ctx, 9))

	assert.Equal(t, Neutral, price.ColorAt(9, 12))
}

func TestShiftPriceColumn_NoopOnSingleSheet(t *testing.T) {
	for name, price := range map[string]func(*MemorySheet) Sheet{
		"nil price sheet":   func(*MemorySheet) Sheet { return nil },
		"main passed twice": func(m *MemorySheet) Sheet { return m },
	} {
		t.Run(name, func(t *testing.T) {
			main := NewMemorySheet()
			main.Fail = func(op string) error { return fmt.Errorf("unexpected %s", op) }
			l := New(main, price(main), DefaultLayout(), logger.NewNoOpLogger())

			assert.NoError(t, l.ShiftPriceColumn(context.Background(), 3))
		})
	}
}

func TestPurgeSteps_SingleSheetKeepsShiftedRowsIntact(t *testing.T) {
	main := NewMemorySheet()
	l := New(main, main, DefaultLayout(), logger.NewNoOpLogger())
	ctx := context.Background()
	lay := DefaultLayout()

	for r := 2; r <= 8; r++ {
		require.NoError(t, main.WriteRow(ctx, r, []string{fmt.Sprint(r - 1)}))
		require.NoError(t, main.WriteCell(ctx, r, lay.PriceColor, fmt.Sprintf("cur-row%d", r)))
		require.NoError(t, main.WriteCell(ctx, r, lay.Price, fmt.Sprintf("price-row%d", r)))
	}
	require.NoError(t, l.MarkPrice(ctx, 6, Green))
	require.NoError(t, l.MarkPrice(ctx, 7, Yellow))

	require.NoError(t, l.ShiftPriceColumn(ctx, 5))
	require.NoError(t, l.DeleteRow(ctx, 5))

	for r := 5; r <= 7; r++ {
		assert.Equal(t, fmt.Sprintf("cur-row%d", r+1), main.Value(r, lay.PriceColor), "row %d", r)
		assert.Equal(t, fmt.Sprintf("price-row%d", r+1), main.Value(r, lay.Price), "row %d", r)
	}
	assert.Equal(t, "cur-row4", main.Value(4, lay.PriceColor))
	assert.Equal(t, Green, main.ColorAt(5, lay.PriceColor))
	assert.Equal(t, Yellow, main.ColorAt(6, lay.PriceColor))
	assert.Equal(t, 7, main.Rows())
}

func TestDeleteRow_ShiftsMainRows(t *testing.T) {
	l, main, _ := newTestLedger(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := l.AppendRow(ctx, testFields(), filedAt)
		require.NoError(t, err)
	}
	require.NoError(t, main.WriteCell(ctx, 4, 15, "130"))

	require.NoError(t, l.DeleteRow(ctx, 3))

	prices, err := l.ReadManagerPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, "130", prices[2])
	assert.Equal(t, 3, main.Rows())
}

// ==========================
// Rendering Helpers
// ==========================

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(1))
	assert.Equal(t, "L", columnLetter(12))
	assert.Equal(t, "O", columnLetter(15))
	assert.Equal(t, "Z", columnLetter(26))
	assert.Equal(t, "AA", columnLetter(27))
	assert.Equal(t, "AZ", columnLetter(52))
}

func TestA1(t *testing.T) {
	assert.Equal(t, "'Sheet1'!L5", a1("Sheet1", Cell(5, 12)))
	assert.Equal(t, "'Bob''s'!A2:AZ2", a1("Bob's", Range{StartRow: 2, EndRow: 2, StartCol: 1, EndCol: 52}))
	assert.Equal(t, "O3:O9", a1("", Range{StartRow: 3, EndRow: 9, StartCol: 15, EndCol: 15}))
}

func TestRender_FallsBackToOwnerName(t *testing.T) {
	f := testFields()
	f.Offer.FullName = ""
	f.Offer.Quantity = ""
	f.Offer.Currency = "zloty"

	cells := DefaultLayout().Render(7, f, filedAt)

	assert.Len(t, cells, 52)
	assert.Equal(t, "6", cells[0])
	assert.Equal(t, "Ivan\nPetrenko", cells[2])
	assert.Equal(t, "", cells[7])
	assert.Equal(t, "zloty", cells[11])
}

func TestExtraFieldName(t *testing.T) {
	assert.Equal(t, "Амброзія", models.ExtraFieldName("ambrizia"))
	assert.Equal(t, "Moisture", models.ExtraFieldName("moisture"))
	assert.True(t, strings.HasPrefix(strings.Join(models.ExtraLines(map[string]string{"b": "2", "a": "1"}), "|"), "A: 1"))
}

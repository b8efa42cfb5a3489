// internal/ledger/row.go
package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"offer-ledger/internal/models"
)

// RowFields is what a new ledger row is rendered from.
type RowFields struct {
	OwnerID  string
	FullName string
	Offer    models.Offer
}

// Render lays fields out over MaxColumns cells for the given row.
func (lay Layout) Render(row int, f RowFields, now time.Time) []string {
	cells := make([]string, lay.MaxColumns)
	set := func(col int, v string) {
		if col >= 1 && col <= len(cells) {
			cells[col-1] = v
		}
	}

	o := f.Offer
	name := o.FullName
	if name == "" {
		name = f.FullName
	}
	quantity := o.Quantity
	if quantity != "" {
		quantity += " Т"
	}

	set(lay.Sequence, strconv.Itoa(row-1))
	set(lay.Date, now.Format("02.01"))
	set(lay.Name, strings.Join(strings.Fields(name), "\n"))
	set(lay.Farm, o.FarmName)
	set(lay.TaxID, o.TaxID)
	set(lay.Group, o.Group)
	set(lay.Culture, o.Culture)
	set(lay.Quantity, quantity)
	set(lay.Location, fmt.Sprintf("Область: %s\nРайон: %s\nНас. пункт: %s", o.Region, o.District, o.City))
	set(lay.Extra, strings.Join(models.ExtraLines(o.ExtraFields), "\n"))
	set(lay.PaymentForm, o.PaymentForm)
	set(lay.Currency, models.CurrencyName(o.Currency))
	set(lay.Price, o.Price)
	set(lay.ManagerPrice, o.ManagerPrice)
	set(lay.Phone, o.Phone)
	set(lay.Owner, f.OwnerID)
	return cells
}

// columnLetter converts a 1-based column index to A1 letters (1 -> A, 27 -> AA).
func columnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// a1 renders a range in A1 notation prefixed with the sheet title.
func a1(sheet string, r Range) string {
	start := fmt.Sprintf("%s%d", columnLetter(r.StartCol), r.StartRow)
	end := fmt.Sprintf("%s%d", columnLetter(r.EndCol), r.EndRow)
	prefix := sheetPrefix(sheet)
	if start == end {
		return prefix + start
	}
	return prefix + start + ":" + end
}

func sheetPrefix(sheet string) string {
	if sheet == "" {
		return ""
	}
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!"
}

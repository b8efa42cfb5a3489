// internal/models/price.go
package models

import (
	"strconv"
	"strings"
	"time"
)

// PriceEventKind tells a first offer apart from a revision.
type PriceEventKind string

const (
	PriceFirstOffer PriceEventKind = "first_offer"
	PriceRevised    PriceEventKind = "revised"
)

// PriceEvent describes a manager price folded into an application.
type PriceEvent struct {
	Kind       PriceEventKind
	Previous   string
	Current    string
	FromStatus Status
}

// ParsePrice normalizes a raw ledger cell. ok is false for empty or
// non-numeric content, which counts as "no offer yet".
func ParsePrice(raw string) (price string, value float64, ok bool) {
	price = strings.TrimSpace(raw)
	if price == "" {
		return "", 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(price, ",", "."), 64)
	if err != nil {
		return "", 0, false
	}
	return price, v, true
}

// ObserveManagerPrice folds a raw ledger cell into the application.
// It returns nil when nothing changed: empty or malformed cells, closed
// records, and a value equal to the current proposal.
func (a *Application) ObserveManagerPrice(raw string, now time.Time) (*PriceEvent, error) {
	if a.Status.Closed() {
		return nil, nil
	}
	price, _, ok := ParsePrice(raw)
	if !ok {
		return nil, nil
	}

	event := &PriceEvent{Current: price, FromStatus: a.Status}
	switch {
	case a.ManagerPrice == "":
		event.Kind = PriceFirstOffer
	case price != a.Proposal:
		event.Kind = PriceRevised
		event.Previous = a.Proposal
	default:
		return nil, nil
	}

	if _, err := a.Apply(TriggerManagerPrice, now); err != nil {
		return nil, err
	}
	if event.Kind == PriceRevised {
		a.OriginalManagerPrice = event.Previous
	}
	a.ManagerPrice = price
	a.Proposal = price
	return event, nil
}

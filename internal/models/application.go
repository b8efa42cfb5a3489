// internal/models/application.go
package models

import (
	"time"
)

// Application is one submitted commodity offer and its negotiation state.
type Application struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	NotifyAddress string    `json:"notifyAddress"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Status     Status `json:"status"`
	LedgerRow  *int   `json:"ledgerRow,omitempty"`
	OnceWaited bool   `json:"onceWaited"`

	// ManagerPrice is the last price read from the ledger, OriginalManagerPrice
	// the one before it. Proposal is what the submitter is asked to accept.
	ManagerPrice         string `json:"managerPrice,omitempty"`
	OriginalManagerPrice string `json:"originalManagerPrice,omitempty"`
	Proposal             string `json:"proposal,omitempty"`

	Offer Offer `json:"offer"`
}

// Offer is the business payload carried through the workflow unchanged.
type Offer struct {
	FullName     string            `json:"fullname,omitempty"`
	FarmName     string            `json:"fgh_name,omitempty"`
	TaxID        string            `json:"edrpou,omitempty"`
	Group        string            `json:"group,omitempty"`
	Culture      string            `json:"culture,omitempty"`
	Quantity     string            `json:"quantity,omitempty"`
	Region       string            `json:"region,omitempty"`
	District     string            `json:"district,omitempty"`
	City         string            `json:"city,omitempty"`
	ExtraFields  map[string]string `json:"extra_fields,omitempty"`
	PaymentForm  string            `json:"payment_form,omitempty"`
	Currency     string            `json:"currency,omitempty"`
	Price        string            `json:"price,omitempty"`
	ManagerPrice string            `json:"manager_price,omitempty"`
	Phone        string            `json:"phone,omitempty"`
}

// HasRow reports whether a ledger row has been allocated.
func (a *Application) HasRow() bool {
	return a.LedgerRow != nil && *a.LedgerRow > 0
}

// Row returns the ledger row or 0 when none is allocated.
func (a *Application) Row() int {
	if a.LedgerRow == nil {
		return 0
	}
	return *a.LedgerRow
}

// SetRow replaces the ledger row; a non-positive value clears it.
func (a *Application) SetRow(row int) {
	if row <= 0 {
		a.LedgerRow = nil
		return
	}
	r := row
	a.LedgerRow = &r
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	c := *a
	if a.LedgerRow != nil {
		c.SetRow(*a.LedgerRow)
	}
	if a.Offer.ExtraFields != nil {
		c.Offer.ExtraFields = make(map[string]string, len(a.Offer.ExtraFields))
		for k, v := range a.Offer.ExtraFields {
			c.Offer.ExtraFields[k] = v
		}
	}
	return &c
}

// Apply moves the record along the transition table. The status is left
// untouched when the trigger is not allowed from the current state.
func (a *Application) Apply(trigger Trigger, now time.Time) (Status, error) {
	next, err := Next(a.Status, trigger)
	if err != nil {
		return a.Status, err
	}
	if trigger == TriggerDecline && a.OnceWaited {
		return a.Status, &TransitionError{From: a.Status, Trigger: trigger, Reason: "reject is no longer offered after waiting once"}
	}
	prev := a.Status
	a.Status = next
	a.UpdatedAt = now
	return prev, nil
}

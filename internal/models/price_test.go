package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"120", "120", true},
		{" 130.5 ", "130.5", true},
		{"130,5", "130,5", true},
		{"", "", false},
		{"   ", "", false},
		{"call me", "", false},
		{"12$", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, _, ok := ParsePrice(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObserveManagerPrice_FirstOffer(t *testing.T) {
	for _, from := range []Status{StatusActive, StatusWaiting} {
		t.Run(string(from), func(t *testing.T) {
			app := &Application{Status: from}

			ev, err := app.ObserveManagerPrice("120", time.Now())

			require.NoError(t, err)
			require.NotNil(t, ev)
			assert.Equal(t, PriceFirstOffer, ev.Kind)
			assert.Equal(t, from, ev.FromStatus)
			assert.Equal(t, StatusAgreed, app.Status)
			assert.Equal(t, "120", app.Proposal)
			assert.Equal(t, "120", app.ManagerPrice)
			assert.Empty(t, app.OriginalManagerPrice)
		})
	}
}

func TestObserveManagerPrice_Revision(t *testing.T) {
	app := &Application{Status: StatusWaiting, ManagerPrice: "120", Proposal: "120", OnceWaited: true}

	ev, err := app.ObserveManagerPrice("130", time.Now())

	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, PriceRevised, ev.Kind)
	assert.Equal(t, "120", ev.Previous)
	assert.Equal(t, StatusWaiting, ev.FromStatus)
	assert.Equal(t, StatusAgreed, app.Status)
	assert.Equal(t, "120", app.OriginalManagerPrice)
	assert.Equal(t, "130", app.Proposal)
}

func TestObserveManagerPrice_NoChange(t *testing.T) {
	tests := []struct {
		name string
		app  Application
		raw  string
	}{
		{"same value", Application{Status: StatusAgreed, ManagerPrice: "120", Proposal: "120"}, "120"},
		{"empty cell", Application{Status: StatusActive}, ""},
		{"malformed cell", Application{Status: StatusActive}, "n/a"},
		{"confirmed", Application{Status: StatusConfirmed, ManagerPrice: "120", Proposal: "120"}, "999"},
		{"deleted", Application{Status: StatusDeleted}, "999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := tt.app
			before := app

			ev, err := app.ObserveManagerPrice(tt.raw, time.Now())

			assert.NoError(t, err)
			assert.Nil(t, ev)
			assert.Equal(t, before, app)
		})
	}
}

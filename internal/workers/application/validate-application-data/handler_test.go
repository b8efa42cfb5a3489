// internal/workers/application/validate-application-data/handler_test.go
package validateapplicationdata

import (
	"context"
	"testing"
	"time"

	"offer-ledger/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createValidInput() *Input {
	return &Input{Offer: map[string]interface{}{
		"fgh_name":     "FG Kolos",
		"edrpou":       "12345678",
		"culture":      "Wheat",
		"quantity":     "25,5",
		"price":        200,
		"currency":     "euro",
		"payment_form": "cash",
		"region":       "Kyivska",
		"extra_fields": map[string]interface{}{"bilok_na_siru": 12.5},
	}}
}

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(&Config{Timeout: time.Second}, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ValidOffer(t *testing.T) {
	output := newTestHandler(t).Execute(context.Background(), createValidInput())

	require.True(t, output.IsValid)
	assert.Empty(t, output.ValidationErrors)
	assert.Equal(t, "euro", output.Offer.Currency)
	assert.Equal(t, "200", output.Offer.Price)
	assert.Equal(t, "25,5", output.Offer.Quantity)
	assert.Equal(t, "12.5", output.Offer.ExtraFields["bilok_na_siru"])
	assert.Contains(t, output.Preview, "ФГ: FG Kolos")
	assert.Contains(t, output.Preview, "Білок на сиру: 12.5")
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_InvalidOffer(t *testing.T) {
	tests := []struct {
		name  string
		patch func(map[string]interface{})
		field string
	}{
		{"missing culture", func(m map[string]interface{}) { delete(m, "culture") }, "culture"},
		{"bad currency", func(m map[string]interface{}) { m["currency"] = "btc" }, "currency"},
		{"bad tax id", func(m map[string]interface{}) { m["edrpou"] = "12ab" }, "edrpou"},
		{"negative price", func(m map[string]interface{}) { m["price"] = -5 }, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createValidInput()
			tt.patch(input.Offer)

			output := newTestHandler(t).Execute(context.Background(), input)

			assert.False(t, output.IsValid)
			assert.Nil(t, output.Offer)
			assert.Empty(t, output.Preview)
			require.NotEmpty(t, output.ValidationErrors)
			fields := make([]string, 0, len(output.ValidationErrors))
			for _, e := range output.ValidationErrors {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

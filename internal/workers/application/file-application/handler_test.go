// internal/workers/application/file-application/handler_test.go
package fileapplication

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"offer-ledger/internal/common/config"
	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/lifecycle"
	"offer-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeFiler struct {
	got lifecycle.FileRequest
	err error
}

func (f *fakeFiler) File(_ context.Context, req lifecycle.FileRequest) (*models.Application, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	app := &models.Application{
		ID:        "app-1",
		OwnerID:   req.OwnerID,
		Status:    models.StatusActive,
		CreatedAt: time.Date(2024, 7, 3, 9, 0, 0, 0, time.UTC),
		Offer:     req.Offer,
	}
	app.SetRow(5)
	return app, nil
}

func createTestInput() *Input {
	return &Input{
		OwnerID: "777",
		Offer: map[string]interface{}{
			"culture":      "Wheat",
			"quantity":     25.0,
			"price":        "120",
			"currency":     "dollar",
			"payment_form": "cash",
			"region":       "Kyiv",
		},
	}
}

func newTestHandler(t *testing.T, filer Filer) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, filer, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	filer := &fakeFiler{}
	handler := newTestHandler(t, filer)

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, "app-1", output.ApplicationID)
	assert.Equal(t, "active", output.ApplicationStatus)
	assert.Equal(t, 5, output.LedgerRow)
	assert.Equal(t, "2024-07-03T09:00:00Z", output.CreatedAt)
	assert.Equal(t, "777", filer.got.OwnerID)
	assert.Equal(t, "25", filer.got.Offer.Quantity)
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_InvalidOffer(t *testing.T) {
	filer := &fakeFiler{}
	handler := newTestHandler(t, filer)
	input := createTestInput()
	delete(input.Offer, "culture")

	_, err := handler.Execute(context.Background(), input)

	assert.True(t, stderrors.Is(err, apperrors.ErrValidationFailed))
	assert.Contains(t, err.Error(), "culture")
	assert.Empty(t, filer.got.OwnerID, "nothing filed")
}

func TestHandler_Execute_MissingOwner(t *testing.T) {
	handler := newTestHandler(t, &fakeFiler{})
	input := createTestInput()
	input.OwnerID = " "

	_, err := handler.Execute(context.Background(), input)

	assert.True(t, stderrors.Is(err, apperrors.ErrValidationFailed))
}

// ==========================
// Error Mapping Tests
// ==========================

func TestHandler_Execute_PropagatesEngineErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"not approved", apperrors.NewUserNotApprovedError("777", "pending"), false},
		{"ledger down", apperrors.NewLedgerUnavailableError("append_row", stderrors.New("503")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(t, &fakeFiler{err: tt.err})

			_, err := handler.Execute(context.Background(), createTestInput())

			require.Error(t, err)
			assert.Equal(t, tt.retryable, apperrors.Normalize(err).Retryable)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{TaskType: {Enabled: true, Timeout: 1500}}}

	assert.Equal(t, 1500*time.Millisecond, LoadConfig(cfg).Timeout)
	assert.Equal(t, 30*time.Second, LoadConfig(&config.Config{}).Timeout)
}

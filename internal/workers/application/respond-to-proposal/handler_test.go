// internal/workers/application/respond-to-proposal/handler_test.go
package respondtoproposal

import (
	"context"
	stderrors "errors"
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

type fakeResponder struct {
	apps   map[string]*models.Application
	action models.Action
	actor  string
}

func (f *fakeResponder) Respond(_ context.Context, id string, action models.Action, actor string) (*models.Application, error) {
	f.action, f.actor = action, actor
	app, ok := f.apps[id]
	if !ok {
		return nil, apperrors.NewApplicationNotFoundError(id)
	}
	trigger := map[models.Action]models.Trigger{
		models.ActionConfirm: models.TriggerAccept,
		models.ActionReject:  models.TriggerDecline,
		models.ActionWait:    models.TriggerWait,
		models.ActionDelete:  models.TriggerDelete,
	}[action]
	if trigger == "" {
		return nil, apperrors.NewApplicationValidationFailedError("unknown action")
	}
	if _, err := app.Apply(trigger, time.Now()); err != nil {
		return nil, apperrors.NewInvalidTransitionError(id, err)
	}
	return app.Clone(), nil
}

func newResponder() *fakeResponder {
	return &fakeResponder{apps: map[string]*models.Application{
		"app-1": {ID: "app-1", Status: models.StatusAgreed, Proposal: "120"},
		"app-2": {ID: "app-2", Status: models.StatusActive},
	}}
}

func newTestHandler(t *testing.T, r Responder) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, r, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Reject(t *testing.T) {
	responder := newResponder()
	handler := newTestHandler(t, responder)

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-1", Action: " Reject ", Actor: "777"})

	require.NoError(t, err)
	assert.Equal(t, models.ActionReject, responder.action)
	assert.Equal(t, "777", responder.actor)
	assert.Equal(t, "rejected", output.ApplicationStatus)
	assert.Equal(t, "120", output.Proposal)
	assert.Equal(t, []string{"delete", "wait"}, output.AvailableActions)
}

func TestHandler_Execute_Confirm(t *testing.T) {
	handler := newTestHandler(t, newResponder())

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-1", Action: "confirm"})

	require.NoError(t, err)
	assert.Equal(t, "confirmed", output.ApplicationStatus)
	assert.Equal(t, []string{"view_proposal"}, output.AvailableActions)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		want  error
	}{
		{"missing id", &Input{Action: "confirm"}, apperrors.ErrValidationFailed},
		{"unknown record", &Input{ApplicationID: "nope", Action: "confirm"}, apperrors.ErrApplicationNotFound},
		{"not offered", &Input{ApplicationID: "app-2", Action: "confirm"}, apperrors.ErrInvalidTransition},
		{"unknown action", &Input{ApplicationID: "app-1", Action: "haggle"}, apperrors.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(t, newResponder())

			_, err := handler.Execute(context.Background(), tt.input)

			assert.True(t, stderrors.Is(err, tt.want), "got %v", err)
			assert.False(t, apperrors.Normalize(err).Retryable)
		})
	}
}

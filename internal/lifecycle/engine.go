// Package lifecycle owns the application state machine and keeps the record
// store and the ledger in step with it.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"offer-ledger/internal/audit"
	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/metrics"
	"offer-ledger/internal/ledger"
	"offer-ledger/internal/models"
	"offer-ledger/internal/notify"
	"offer-ledger/internal/store"

	"github.com/google/uuid"
)

// Deps are the collaborators of an Engine. Audit, Now and NewID are optional.
type Deps struct {
	Store    store.Store
	Ledger   *ledger.Ledger
	Notifier *notify.Dispatcher
	Audit    audit.Recorder
	Logger   logger.Logger
	Now      func() time.Time
	NewID    func() string
}

// Engine is the single writer of the record set. Every read-modify-write of
// records (filing, transitions, the reconciliation sweep and purges) runs
// under mu, so none of them can lose another's update.
type Engine struct {
	mu sync.Mutex

	store    store.Store
	ledger   *ledger.Ledger
	notifier *notify.Dispatcher
	audit    audit.Recorder
	log      logger.Logger
	now      func() time.Time
	newID    func() string
}

func New(d Deps) *Engine {
	e := &Engine{
		store:    d.Store,
		ledger:   d.Ledger,
		notifier: d.Notifier,
		audit:    d.Audit,
		log:      logger.Component(d.Logger, "lifecycle"),
		now:      d.Now,
		newID:    d.NewID,
	}
	if e.audit == nil {
		e.audit = audit.Nop{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = func() string { return uuid.New().String() }
	}
	return e
}

// FileRequest is an offer accepted for filing.
type FileRequest struct {
	OwnerID string
	// NotifyAddress defaults to OwnerID, which is a chat id for Telegram users.
	NotifyAddress string
	Offer         models.Offer
}

// File creates an active record for an approved owner and allocates its
// ledger row. Nothing is persisted when the ledger append fails.
func (e *Engine) File(ctx context.Context, req FileRequest) (*models.Application, error) {
	if req.OwnerID == "" {
		return nil, apperrors.NewApplicationValidationFailedError("ownerId is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	user, err := e.store.GetUser(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if user.Membership != models.MembershipApproved {
		return nil, apperrors.NewUserNotApprovedError(user.ID, string(user.Membership))
	}

	now := e.now().UTC()
	row, err := e.ledger.AppendRow(ctx, ledger.RowFields{OwnerID: req.OwnerID, FullName: user.FullName, Offer: req.Offer}, now)
	if err != nil {
		return nil, err
	}

	address := req.NotifyAddress
	if address == "" {
		address = req.OwnerID
	}
	app := &models.Application{
		ID:            e.newID(),
		OwnerID:       req.OwnerID,
		NotifyAddress: address,
		CreatedAt:     now,
		UpdatedAt:     now,
		Status:        models.StatusActive,
		Offer:         req.Offer,
	}
	app.SetRow(row)

	if err := e.store.Put(ctx, app); err != nil {
		// The row is already in the ledger; an operator has to remove it.
		e.log.Error("record not saved after row allocation", map[string]interface{}{
			"applicationId": app.ID,
			"ledgerRow":     row,
			"error":         err,
		})
		return nil, err
	}

	e.log.Info("application filed", map[string]interface{}{
		"applicationId": app.ID,
		"ownerId":       app.OwnerID,
		"ledgerRow":     row,
	})
	e.record(ctx, app, "", models.TriggerFile, req.OwnerID)
	return app, nil
}

// Get returns one record.
func (e *Engine) Get(ctx context.Context, id string) (*models.Application, error) {
	return e.store.Get(ctx, id)
}

// ListByOwner returns an owner's records in filing order.
func (e *Engine) ListByOwner(ctx context.Context, ownerID string) ([]*models.Application, error) {
	return e.store.ListByOwner(ctx, ownerID)
}

// All returns every record in filing order.
func (e *Engine) All(ctx context.Context) ([]*models.Application, error) {
	return e.store.All(ctx)
}

// Accept confirms the current proposal, paints the price cell green and
// sends the full detail to the admins.
func (e *Engine) Accept(ctx context.Context, id, actor string) (*models.Application, error) {
	app, err := e.transition(ctx, id, models.TriggerAccept, actor, func(ctx context.Context, app *models.Application) error {
		return e.markPrice(ctx, app, ledger.Green)
	})
	if err != nil {
		return nil, err
	}
	e.notifier.NotifyAdmins(ctx, notify.Confirmed(app))
	return app, nil
}

// Decline rejects the current proposal and paints the price cell red.
func (e *Engine) Decline(ctx context.Context, id, actor string) (*models.Application, error) {
	return e.transition(ctx, id, models.TriggerDecline, actor, func(ctx context.Context, app *models.Application) error {
		return e.markPrice(ctx, app, ledger.Red)
	})
}

// Wait parks a rejected record until the manager revises the price. Reject
// is not offered again afterwards.
func (e *Engine) Wait(ctx context.Context, id, actor string) (*models.Application, error) {
	return e.transition(ctx, id, models.TriggerWait, actor, func(ctx context.Context, app *models.Application) error {
		if err := e.markPrice(ctx, app, ledger.Yellow); err != nil {
			return err
		}
		app.OnceWaited = true
		return nil
	})
}

// SoftDelete marks the record deleted and paints its row deep red. The
// ledger write is best effort; the record keeps its row.
func (e *Engine) SoftDelete(ctx context.Context, id, actor string) (*models.Application, error) {
	return e.transition(ctx, id, models.TriggerDelete, actor, func(ctx context.Context, app *models.Application) error {
		if !app.HasRow() {
			return nil
		}
		if err := e.ledger.MarkDeleted(ctx, app.Row()); err != nil {
			e.log.Warn("deleted row not recolored", map[string]interface{}{
				"applicationId": app.ID,
				"ledgerRow":     app.Row(),
				"error":         err,
			})
		}
		return nil
	})
}

// Respond applies a submitter action by name.
func (e *Engine) Respond(ctx context.Context, id string, action models.Action, actor string) (*models.Application, error) {
	switch action {
	case models.ActionConfirm:
		return e.Accept(ctx, id, actor)
	case models.ActionReject:
		return e.Decline(ctx, id, actor)
	case models.ActionWait:
		return e.Wait(ctx, id, actor)
	case models.ActionDelete:
		return e.SoftDelete(ctx, id, actor)
	default:
		return nil, apperrors.NewApplicationValidationFailedError(fmt.Sprintf("unknown action %q", action))
	}
}

func (e *Engine) markPrice(ctx context.Context, app *models.Application, kind ledger.ColorKind) error {
	if !app.HasRow() {
		return nil
	}
	return e.ledger.MarkPrice(ctx, app.Row(), kind)
}

// transition applies trigger to a copy of the record, runs the ledger side
// effect and persists only when both succeed.
func (e *Engine) transition(
	ctx context.Context,
	id string,
	trigger models.Trigger,
	actor string,
	effect func(ctx context.Context, app *models.Application) error,
) (*models.Application, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	app, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev, err := app.Apply(trigger, e.now().UTC())
	if err != nil {
		return nil, apperrors.NewInvalidTransitionError(id, err)
	}
	if err := effect(ctx, app); err != nil {
		return nil, err
	}
	if err := e.store.Put(ctx, app); err != nil {
		return nil, err
	}

	e.log.Info("application transitioned", map[string]interface{}{
		"applicationId": app.ID,
		"from":          prev,
		"to":            app.Status,
		"trigger":       trigger,
		"ledgerRow":     app.Row(),
	})
	e.record(ctx, app, prev, trigger, actor)
	return app, nil
}

// record counts a transition and writes it to the audit trail. Audit
// failures are logged only.
func (e *Engine) record(ctx context.Context, app *models.Application, from models.Status, trigger models.Trigger, actor string) {
	metrics.Transitions.WithLabelValues(string(from), string(app.Status)).Inc()
	entry := audit.Entry{
		ApplicationID: app.ID,
		OwnerID:       app.OwnerID,
		From:          from,
		To:            app.Status,
		Trigger:       trigger,
		LedgerRow:     app.Row(),
		Price:         app.Proposal,
		Actor:         actor,
		At:            e.now().UTC(),
	}
	if err := e.audit.Record(ctx, entry); err != nil {
		e.log.Warn("audit entry not recorded", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err,
		})
	}
}

// internal/models/status.go
package models

import "fmt"

// Status is the negotiation state of an application.
type Status string

const (
	StatusActive    Status = "active"
	StatusAgreed    Status = "agreed"
	StatusWaiting   Status = "waiting"
	StatusRejected  Status = "rejected"
	StatusConfirmed Status = "confirmed"
	StatusDeleted   Status = "deleted"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusAgreed, StatusWaiting, StatusRejected, StatusConfirmed, StatusDeleted:
		return true
	}
	return false
}

// Closed reports whether the reconciliation loop must leave the record alone.
func (s Status) Closed() bool {
	return s == StatusConfirmed || s == StatusDeleted
}

// Trigger is an event that may move an application to another state.
type Trigger string

const (
	// TriggerFile creates a record; it has no source state.
	TriggerFile         Trigger = "file"
	TriggerManagerPrice Trigger = "manager_price"
	TriggerAccept       Trigger = "accept"
	TriggerDecline      Trigger = "decline"
	TriggerWait         Trigger = "wait"
	TriggerDelete       Trigger = "delete"
	TriggerPurge        Trigger = "purge"
)

// StatusPurged is never persisted; it marks a record removed from the store.
const StatusPurged Status = "purged"

var transitions = map[Status]map[Trigger]Status{
	StatusActive: {
		TriggerManagerPrice: StatusAgreed,
		TriggerDelete:       StatusDeleted,
	},
	StatusAgreed: {
		TriggerManagerPrice: StatusAgreed,
		TriggerAccept:       StatusConfirmed,
		TriggerDecline:      StatusRejected,
		TriggerDelete:       StatusDeleted,
	},
	StatusWaiting: {
		TriggerManagerPrice: StatusAgreed,
		TriggerDelete:       StatusDeleted,
	},
	StatusRejected: {
		TriggerManagerPrice: StatusAgreed,
		TriggerWait:         StatusWaiting,
		TriggerDelete:       StatusDeleted,
	},
	StatusConfirmed: {
		TriggerDelete: StatusDeleted,
	},
	StatusDeleted: {
		TriggerPurge: StatusPurged,
	},
}

// TransitionError is returned for a trigger that is not allowed from a state.
type TransitionError struct {
	From    Status
	Trigger Trigger
	Reason  string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s from %s: %s", e.Trigger, e.From, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s from %s", e.Trigger, e.From)
}

// Next looks up the target state for trigger from status.
func Next(from Status, trigger Trigger) (Status, error) {
	next, ok := transitions[from][trigger]
	if !ok {
		return from, &TransitionError{From: from, Trigger: trigger}
	}
	return next, nil
}

// Action is something the submitter may do from the current state.
type Action string

const (
	ActionConfirm      Action = "confirm"
	ActionReject       Action = "reject"
	ActionWait         Action = "wait"
	ActionDelete       Action = "delete"
	ActionViewProposal Action = "view_proposal"
)

// AvailableActions lists the choices offered to the submitter.
// Once the submitter has waited, reject is never offered again.
func AvailableActions(a *Application) []Action {
	switch a.Status {
	case StatusAgreed:
		if a.OnceWaited {
			return []Action{ActionConfirm, ActionDelete}
		}
		return []Action{ActionConfirm, ActionReject, ActionDelete}
	case StatusRejected:
		return []Action{ActionDelete, ActionWait}
	case StatusActive, StatusWaiting:
		return []Action{ActionViewProposal}
	default:
		return nil
	}
}

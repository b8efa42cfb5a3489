// Package users manages the registry of submitters and their moderation state.
package users

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/models"
	"offer-ledger/internal/notify"
	"offer-ledger/internal/store"
)

// Service moves users between the pending, approved and blocked buckets.
// Membership is a single field, so a user is always in exactly one bucket.
type Service struct {
	store    store.Store
	notifier *notify.Dispatcher
	log      logger.Logger
	now      func() time.Time
}

func NewService(st store.Store, notifier *notify.Dispatcher, log logger.Logger) *Service {
	return &Service{store: st, notifier: notifier, log: logger.Component(log, "users"), now: time.Now}
}

// Register records a pending user and asks the admins to moderate it.
// Registering an existing user only refreshes name and phone.
func (s *Service) Register(ctx context.Context, id, fullName, phone string) (*models.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewApplicationValidationFailedError("user id is required")
	}
	now := s.now().UTC()

	isNew := false
	user, err := s.store.GetUser(ctx, id)
	switch {
	case stderrors.Is(err, apperrors.ErrUserNotFound):
		user = &models.User{ID: id, Membership: models.MembershipPending, RegisteredAt: now}
		isNew = true
	case err != nil:
		return nil, err
	}
	user.FullName = strings.TrimSpace(fullName)
	user.Phone = strings.TrimSpace(phone)
	user.UpdatedAt = now

	if err := s.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	if isNew {
		s.log.Info("user registered", map[string]interface{}{"userId": id})
		s.notifier.NotifyAdmins(ctx, notify.UserPending(user))
	}
	return user, nil
}

// Approve lets the user file applications.
func (s *Service) Approve(ctx context.Context, id string) (*models.User, error) {
	return s.setMembership(ctx, id, models.MembershipApproved, notify.UserApproved)
}

// Block rejects the user.
func (s *Service) Block(ctx context.Context, id string) (*models.User, error) {
	return s.setMembership(ctx, id, models.MembershipBlocked, notify.UserBlocked)
}

func (s *Service) setMembership(ctx context.Context, id string, m models.Membership, text string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Membership == m {
		return user, nil
	}
	prev := user.Membership
	user.Membership = m
	user.UpdatedAt = s.now().UTC()
	if err := s.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user membership changed", map[string]interface{}{"userId": id, "from": prev, "to": m})
	s.notifier.Notify(ctx, user.ID, text)
	return user, nil
}

// IsApproved reports whether the user may file applications.
func (s *Service) IsApproved(ctx context.Context, id string) (bool, error) {
	user, err := s.store.GetUser(ctx, id)
	if stderrors.Is(err, apperrors.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Membership == models.MembershipApproved, nil
}

// List returns users in one bucket, or all users when m is empty.
func (s *Service) List(ctx context.Context, m models.Membership) ([]*models.User, error) {
	all, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if m == "" {
		return all, nil
	}
	out := make([]*models.User, 0, len(all))
	for _, u := range all {
		if u.Membership == m {
			out = append(out, u)
		}
	}
	return out, nil
}

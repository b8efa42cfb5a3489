// internal/store/memory.go
package store

import (
	"context"
	"sync"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/models"
)

// Memory is an in-process Store. Records are cloned on the way in and out
// so callers never alias stored state.
type Memory struct {
	mu    sync.RWMutex
	apps  map[string]*models.Application
	users map[string]*models.User
}

func NewMemory() *Memory {
	return &Memory{
		apps:  make(map[string]*models.Application),
		users: make(map[string]*models.User),
	}
}

func (m *Memory) Get(_ context.Context, id string) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, apperrors.NewApplicationNotFoundError(id)
	}
	return app.Clone(), nil
}

func (m *Memory) Put(_ context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[app.ID] = app.Clone()
	return nil
}

func (m *Memory) PutMany(_ context.Context, apps []*models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, app := range apps {
		m.apps[app.ID] = app.Clone()
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[id]; !ok {
		return apperrors.NewApplicationNotFoundError(id)
	}
	delete(m.apps, id)
	return nil
}

func (m *Memory) All(_ context.Context) ([]*models.Application, error) {
	m.mu.RLock()
	out := make([]*models.Application, 0, len(m.apps))
	for _, app := range m.apps {
		out = append(out, app.Clone())
	}
	m.mu.RUnlock()
	sortApplications(out)
	return out, nil
}

func (m *Memory) ListByOwner(ctx context.Context, ownerID string) ([]*models.Application, error) {
	all, _ := m.All(ctx)
	return filterOwner(all, ownerID), nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NewUserNotFoundError(id)
	}
	c := *u
	return &c, nil
}

func (m *Memory) PutUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *Memory) ListUsers(_ context.Context) ([]*models.User, error) {
	m.mu.RLock()
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		c := *u
		out = append(out, &c)
	}
	m.mu.RUnlock()
	sortUsers(out)
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

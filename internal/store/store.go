// Package store persists application and user records.
package store

import (
	"context"
	"sort"

	"offer-ledger/internal/models"
)

// Store is the durable keyed collection of records. It holds no business
// logic; every failure other than a missing key is a STORE_UNAVAILABLE error.
type Store interface {
	Get(ctx context.Context, id string) (*models.Application, error)
	Put(ctx context.Context, app *models.Application) error
	// PutMany saves a batch atomically where the backend allows it.
	PutMany(ctx context.Context, apps []*models.Application) error
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]*models.Application, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Application, error)

	GetUser(ctx context.Context, id string) (*models.User, error)
	PutUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)

	Ping(ctx context.Context) error
	Close() error
}

func sortApplications(apps []*models.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.Before(apps[j].CreatedAt)
		}
		return apps[i].ID < apps[j].ID
	})
}

func sortUsers(users []*models.User) {
	sort.SliceStable(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}

func filterOwner(apps []*models.Application, ownerID string) []*models.Application {
	out := make([]*models.Application, 0, len(apps))
	for _, a := range apps {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out
}

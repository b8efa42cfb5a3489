// internal/store/store_test.go
package store

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var baseTime = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func newApp(id, owner string, row int, offset time.Duration) *models.Application {
	app := &models.Application{
		ID:        id,
		OwnerID:   owner,
		CreatedAt: baseTime.Add(offset),
		UpdatedAt: baseTime.Add(offset),
		Status:    models.StatusActive,
		Offer:     models.Offer{Culture: "Wheat", Quantity: "25", ExtraFields: map[string]string{"bilok": "12"}},
	}
	app.SetRow(row)
	return app
}

func setupRedis(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "test")
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"redis":  setupRedis(t),
	}
}

// ==========================
// Contract Tests
// ==========================

func TestStore_PutGetRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			app := newApp("a1", "u1", 5, 0)
			require.NoError(t, s.Put(ctx, app))

			got, err := s.Get(ctx, "a1")
			require.NoError(t, err)
			assert.Equal(t, 5, got.Row())
			assert.Equal(t, "u1", got.OwnerID)
			assert.Equal(t, "12", got.Offer.ExtraFields["bilok"])
			assert.True(t, got.CreatedAt.Equal(app.CreatedAt))
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "nope")
			assert.True(t, stderrors.Is(err, apperrors.ErrApplicationNotFound))
		})
	}
}

func TestStore_PutManyAndAllOrdering(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.PutMany(ctx, []*models.Application{
				newApp("c", "u1", 7, 2*time.Minute),
				newApp("a", "u2", 3, 0),
				newApp("b", "u1", 5, time.Minute),
			}))

			all, err := s.All(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

			mine, err := s.ListByOwner(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, mine, 2)
			assert.Equal(t, "b", mine[0].ID)
			assert.Equal(t, "c", mine[1].ID)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, newApp("a1", "u1", 5, 0)))

			require.NoError(t, s.Delete(ctx, "a1"))

			_, err := s.Get(ctx, "a1")
			assert.True(t, stderrors.Is(err, apperrors.ErrApplicationNotFound))
			err = s.Delete(ctx, "a1")
			assert.True(t, stderrors.Is(err, apperrors.ErrApplicationNotFound))
		})
	}
}

func TestStore_Users(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.PutUser(ctx, &models.User{ID: "u2", Membership: models.MembershipPending}))
			require.NoError(t, s.PutUser(ctx, &models.User{ID: "u1", FullName: "Ivan Petrenko", Membership: models.MembershipApproved}))

			u, err := s.GetUser(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, models.MembershipApproved, u.Membership)

			users, err := s.ListUsers(ctx)
			require.NoError(t, err)
			require.Len(t, users, 2)
			assert.Equal(t, "u1", users[0].ID)

			_, err = s.GetUser(ctx, "ghost")
			assert.True(t, stderrors.Is(err, apperrors.ErrUserNotFound))
		})
	}
}

// ==========================
// Isolation Tests
// ==========================

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	app := newApp("a1", "u1", 5, 0)
	require.NoError(t, s.Put(ctx, app))

	app.SetRow(9)
	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Row())

	got.Status = models.StatusDeleted
	again, _ := s.Get(ctx, "a1")
	assert.Equal(t, models.StatusActive, again.Status)
}

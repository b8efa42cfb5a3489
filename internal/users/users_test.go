// internal/users/users_test.go
package users

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/models"
	"offer-ledger/internal/notify"
	"offer-ledger/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu   sync.Mutex
	msgs map[string][]string
}

func (c *captured) Send(_ context.Context, address, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs[address] = append(c.msgs[address], text)
	return nil
}

func setup(t *testing.T) (*Service, *captured) {
	t.Helper()
	sink := &captured{msgs: map[string][]string{}}
	log := logger.NewTestLogger(t)
	svc := NewService(store.NewMemory(), notify.NewDispatcher(sink, []string{"admin"}, log), log)
	svc.now = func() time.Time { return time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC) }
	return svc, sink
}

func TestRegister_CreatesPendingAndNotifiesAdmins(t *testing.T) {
	svc, sink := setup(t)

	u, err := svc.Register(context.Background(), "42", " Ivan Petrenko ", "+380501112233")

	require.NoError(t, err)
	assert.Equal(t, models.MembershipPending, u.Membership)
	assert.Equal(t, "Ivan Petrenko", u.FullName)
	require.Len(t, sink.msgs["admin"], 1)
	assert.Contains(t, sink.msgs["admin"][0], "User ID: 42")
}

func TestRegister_ExistingUserKeepsMembership(t *testing.T) {
	svc, sink := setup(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "42", "Ivan", "1")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, "42")
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC) }

	u, err := svc.Register(ctx, "42", "Ivan P.", "2")

	require.NoError(t, err)
	assert.Equal(t, models.MembershipApproved, u.Membership)
	assert.Equal(t, "2", u.Phone)
	assert.Len(t, sink.msgs["admin"], 1)
}

func TestRegister_RequiresID(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Register(context.Background(), " ", "Ivan", "1")

	assert.True(t, stderrors.Is(err, apperrors.ErrValidationFailed))
}

func TestMembershipPartition(t *testing.T) {
	svc, sink := setup(t)
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		_, err := svc.Register(ctx, id, "user "+id, "")
		require.NoError(t, err)
	}

	_, err := svc.Approve(ctx, "1")
	require.NoError(t, err)
	_, err = svc.Block(ctx, "2")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, "2")
	require.NoError(t, err)
	_, err = svc.Block(ctx, "2")
	require.NoError(t, err)

	approved, _ := svc.List(ctx, models.MembershipApproved)
	blocked, _ := svc.List(ctx, models.MembershipBlocked)
	pending, _ := svc.List(ctx, models.MembershipPending)
	all, _ := svc.List(ctx, "")

	assert.Len(t, approved, 1)
	assert.Len(t, blocked, 1)
	assert.Len(t, pending, 1)
	assert.Len(t, all, 3)
	assert.Equal(t, []string{notify.UserApproved}, sink.msgs["1"])
	assert.Equal(t, notify.UserBlocked, sink.msgs["2"][2])
}

func TestIsApproved(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "1", "a", "")
	require.NoError(t, err)

	ok, err := svc.IsApproved(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Approve(ctx, "1")
	require.NoError(t, err)
	ok, _ = svc.IsApproved(ctx, "1")
	assert.True(t, ok)

	ok, err = svc.IsApproved(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Approve(ctx, "unknown")
	assert.True(t, stderrors.Is(err, apperrors.ErrUserNotFound))
}

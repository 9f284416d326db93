package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/entity"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ProfileCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewProfileCache(client, ttl), mr
}

func TestProfileCache_SetGetDelete(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrMiss)

	p := &entity.Profile{
		ID:        "u1",
		Name:      "Ann",
		Email:     "ann@x.com",
		Role:      entity.RoleUser,
		Addresses: []entity.Address{{City: "Springfield"}},
		Wishlist:  []string{},
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.Set(ctx, p))
	assert.True(t, mr.Exists("profile:u1"))

	got, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.NoError(t, c.Delete(ctx, "u1"))
	_, err = c.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestProfileCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &entity.Profile{ID: "u1"}))
	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestProfileCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("profile:u1", "{not json"))

	_, err := c.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestProfileCache_ServerDown(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, err := c.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestNoop(t *testing.T) {
	var n Noop
	require.NoError(t, n.Set(context.Background(), &entity.Profile{ID: "u1"}))
	_, err := n.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, n.Delete(context.Background(), "u1"))
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	assert.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "session:token")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Put(ctx, "session:token", "abc"))
	v, err := s.Get(ctx, "session:token")
	assert.NoError(t, err)
	assert.Equal(t, "abc", v)

	// overwrite
	assert.NoError(t, s.Put(ctx, "session:token", "def"))
	v, _ = s.Get(ctx, "session:token")
	assert.Equal(t, "def", v)

	assert.NoError(t, s.Delete(ctx, "session:token"))
	_, err = s.Get(ctx, "session:token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteByPrefix_SweepsAllEmployees(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.Put(ctx, "attendance_state:E100", `{"last_action":"Check In"}`))
	assert.NoError(t, s.Put(ctx, "attendance_state:E200", `{"last_action":"Check Out"}`))
	assert.NoError(t, s.Put(ctx, "session:saved_email", "a@b.test"))

	n, err := s.DeleteByPrefix(ctx, "attendance_state:")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.Get(ctx, "attendance_state:E100")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "attendance_state:E200")
	assert.ErrorIs(t, err, ErrNotFound)

	// other namespaces untouched
	v, err := s.Get(ctx, "session:saved_email")
	assert.NoError(t, err)
	assert.Equal(t, "a@b.test", v)
}

func TestStore_DeleteByPrefix_EscapesLikeWildcards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.Put(ctx, "a_b:key", "1"))
	assert.NoError(t, s.Put(ctx, "axb:key", "2"))

	n, err := s.DeleteByPrefix(ctx, "a_b:")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	v, err := s.Get(ctx, "axb:key")
	assert.NoError(t, err)
	assert.Equal(t, "2", v)
}

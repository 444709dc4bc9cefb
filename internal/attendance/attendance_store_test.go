package attendance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/store"
)

type memStorage struct {
	m map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{m: make(map[string]string)}
}

func (s *memStorage) Get(_ context.Context, key string) (string, error) {
	v, ok := s.m[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *memStorage) Put(_ context.Context, key, value string) error {
	s.m[key] = value
	return nil
}

func (s *memStorage) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for k := range s.m {
		if strings.HasPrefix(k, prefix) {
			delete(s.m, k)
			n++
		}
	}
	return n, nil
}

func strPtr(s string) *string { return &s }

func TestStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newMemStorage()
	ss := NewStateStore(kv).(*stateStore)
	ss.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	err := ss.Save(ctx, "EMP-7", ActionCheckIn, strPtr("2026-03-14T09:00:00"), nil)
	require.NoError(t, err)

	rec, err := ss.Load(ctx, "EMP-7")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "EMP-7", rec.EmployeeID)
	assert.Equal(t, ActionCheckIn, rec.LastAction)
	require.NotNil(t, rec.CheckInTime)
	assert.Equal(t, "2026-03-14T09:00:00", *rec.CheckInTime)
	assert.Nil(t, rec.CheckOutTime)
	assert.Equal(t, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), rec.CachedAt)
}

func TestStateStoreLoadAbsent(t *testing.T) {
	ss := NewStateStore(newMemStorage())

	rec, err := ss.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStateStoreLoadCorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := newMemStorage()
	require.NoError(t, kv.Put(ctx, stateKey("EMP-7"), "{not json"))

	rec, err := NewStateStore(kv).Load(ctx, "EMP-7")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStateStorePurgeAll(t *testing.T) {
	ctx := context.Background()
	kv := newMemStorage()
	ss := NewStateStore(kv)

	require.NoError(t, ss.Save(ctx, "EMP-1", ActionCheckIn, strPtr("2026-03-14T09:00:00"), nil))
	require.NoError(t, ss.Save(ctx, "EMP-2", ActionCheckOut, strPtr("2026-03-14T09:00:00"), strPtr("2026-03-14T17:00:00")))
	require.NoError(t, kv.Put(ctx, "session:user_id", "u-1"))

	require.NoError(t, ss.PurgeAll(ctx))

	for _, emp := range []string{"EMP-1", "EMP-2"} {
		rec, err := ss.Load(ctx, emp)
		require.NoError(t, err)
		assert.Nil(t, rec)
	}
	// unrelated keys survive the purge
	v, err := kv.Get(ctx, "session:user_id")
	require.NoError(t, err)
	assert.Equal(t, "u-1", v)
}

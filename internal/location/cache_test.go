package location

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/store"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

type fakeStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStorage() *fakeStorage { return &fakeStorage{data: map[string]string{}} }

func (f *fakeStorage) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStorage) Put(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

type fakeProvider struct {
	mu         sync.Mutex
	permission bool
	requested  bool
	grantOnAsk bool
	enabled    bool
	fix        Fix
	fixErr     error
	fixCalls   int
}

func (p *fakeProvider) HasPermission(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission, nil
}

func (p *fakeProvider) RequestPermission(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requested = true
	return p.grantOnAsk, nil
}

func (p *fakeProvider) ServiceEnabled(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled, nil
}

func (p *fakeProvider) CurrentFix(ctx context.Context) (Fix, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fixCalls++
	if p.fixErr != nil {
		return Fix{}, p.fixErr
	}
	return p.fix, nil
}

func newTestCache(p Provider, kv Storage) *Cache {
	c := NewCache(p, kv, 0, nil)
	c.sleep = func(ctx context.Context, d time.Duration) {}
	return c
}

func TestStartBackgroundAcquisition_HappyPath(t *testing.T) {
	p := &fakeProvider{permission: true, enabled: true, fix: Fix{Latitude: -6.2, Longitude: 106.8}}
	kv := newFakeStorage()
	c := newTestCache(p, kv)

	assert.True(t, c.StartBackgroundAcquisition(context.Background()))

	fix := c.Cached(context.Background(), DefaultMaxAge)
	assert.NotNil(t, fix)
	assert.Equal(t, -6.2, fix.Latitude)
	assert.Equal(t, "-6.2,106.8", fix.LiveLocation())
}

func TestStartBackgroundAcquisition_FailureSignals(t *testing.T) {
	t.Run("permission denied after one request", func(t *testing.T) {
		p := &fakeProvider{permission: false, grantOnAsk: false, enabled: true}
		c := newTestCache(p, newFakeStorage())
		assert.False(t, c.StartBackgroundAcquisition(context.Background()))
		assert.True(t, p.requested)
		assert.Zero(t, p.fixCalls)
	})

	t.Run("permission granted on request", func(t *testing.T) {
		p := &fakeProvider{permission: false, grantOnAsk: true, enabled: true, fix: Fix{Latitude: 1}}
		c := newTestCache(p, newFakeStorage())
		assert.True(t, c.StartBackgroundAcquisition(context.Background()))
	})

	t.Run("service disabled", func(t *testing.T) {
		p := &fakeProvider{permission: true, enabled: false}
		c := newTestCache(p, newFakeStorage())
		assert.False(t, c.StartBackgroundAcquisition(context.Background()))
		assert.Zero(t, p.fixCalls)
	})

	t.Run("fix failure", func(t *testing.T) {
		p := &fakeProvider{permission: true, enabled: true, fixErr: errors.New("gps timeout")}
		c := newTestCache(p, newFakeStorage())
		assert.False(t, c.StartBackgroundAcquisition(context.Background()))
	})
}

func TestCached_StalenessWindow(t *testing.T) {
	p := &fakeProvider{permission: true, enabled: true, fix: Fix{Latitude: 10, Longitude: 20}}
	kv := newFakeStorage()
	c := newTestCache(p, kv)

	capturedAt := time.Now()
	c.now = func() time.Time { return capturedAt }
	assert.True(t, c.StartBackgroundAcquisition(context.Background()))

	// 60s old: usable
	c.now = func() time.Time { return capturedAt.Add(60 * time.Second) }
	assert.NotNil(t, c.Cached(context.Background(), 120*time.Second))

	// 121s old: absent, not stale-but-usable
	c.now = func() time.Time { return capturedAt.Add(121 * time.Second) }
	assert.Nil(t, c.Cached(context.Background(), 120*time.Second))
}

func TestWaitForLocation_RetryBound(t *testing.T) {
	p := &fakeProvider{permission: false, grantOnAsk: false}
	c := newTestCache(p, newFakeStorage())

	sleeps := 0
	c.sleep = func(ctx context.Context, d time.Duration) {
		sleeps++
		assert.Equal(t, 10*time.Millisecond, d)
	}

	fix := c.WaitForLocation(context.Background(), 3, 10*time.Millisecond)
	assert.Nil(t, fix)
	assert.Equal(t, 3, sleeps)
}

func TestWaitForLocation_PicksUpSampleMidLoop(t *testing.T) {
	p := &fakeProvider{permission: true, enabled: true, fix: Fix{Latitude: 3, Longitude: 4}}
	kv := newFakeStorage()
	c := newTestCache(p, kv)

	// sample lands while the loop is sleeping
	polls := 0
	c.sleep = func(ctx context.Context, d time.Duration) {
		polls++
		if polls == 2 {
			assert.True(t, c.StartBackgroundAcquisition(context.Background()))
		}
	}

	fix := c.WaitForLocation(context.Background(), 6, time.Millisecond)
	assert.NotNil(t, fix)
	assert.Equal(t, 3.0, fix.Latitude)
	assert.Equal(t, 2, polls)
}

func TestTriggerBackgroundRefresh_Throttled(t *testing.T) {
	p := &fakeProvider{permission: true, enabled: true, fix: Fix{Latitude: 1}}
	c := newTestCache(p, newFakeStorage())
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	c.TriggerBackgroundRefresh()
	c.TriggerBackgroundRefresh()
	c.TriggerBackgroundRefresh()

	// only the first trigger may reach the provider inside the window
	assert.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.fixCalls == 1
	}, time.Second, 5*time.Millisecond)
}

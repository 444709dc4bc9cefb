package location

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/store"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	lastKnownKey     = "location:last_known"
	lastKnownTimeKey = "location:last_known_time"

	// DefaultMaxAge is the staleness window: an older sample is absent, not
	// stale-but-usable.
	DefaultMaxAge = 2 * time.Minute

	DefaultWaitRetries = 6
	DefaultWaitDelay   = time.Second

	acquisitionTimeout = 20 * time.Second
)

// Storage is the slice of the device store the cache needs.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// Cache acquires and persists device location. Acquisition failures fold into
// a boolean at this layer; callers decide user-facing messaging.
type Cache struct {
	provider Provider
	kv       Storage
	logger   *zap.Logger

	// throttles fire-and-forget warm-ups so a poll loop cannot stampede the
	// positioning hardware
	limiter *rate.Limiter
	maxAge  time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewCache(provider Provider, kv Storage, maxAge time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Cache{
		provider: provider,
		kv:       kv,
		logger:   logger,
		maxAge:   maxAge,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		now:      time.Now,
		sleep: func(ctx context.Context, d time.Duration) {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
			case <-t.C:
			}
		},
	}
}

// StartBackgroundAcquisition performs one warm-up fix and persists it.
// Returns false when permission is denied, the location service is disabled,
// or the fix fails.
func (c *Cache) StartBackgroundAcquisition(ctx context.Context) bool {
	granted, err := c.provider.HasPermission(ctx)
	if err != nil {
		c.logger.Warn("location permission check failed", zap.Error(err))
		return false
	}
	if !granted {
		granted, err = c.provider.RequestPermission(ctx)
		if err != nil || !granted {
			c.logger.Debug("location permission denied")
			return false
		}
	}

	enabled, err := c.provider.ServiceEnabled(ctx)
	if err != nil || !enabled {
		c.logger.Debug("location service disabled")
		return false
	}

	fix, err := c.provider.CurrentFix(ctx)
	if err != nil {
		c.logger.Warn("location fix failed", zap.Error(err))
		return false
	}

	raw, err := json.Marshal(fix)
	if err != nil {
		return false
	}
	if err := c.kv.Put(ctx, lastKnownKey, string(raw)); err != nil {
		c.logger.Warn("failed to persist location sample", zap.Error(err))
		return false
	}
	capturedAt := strconv.FormatInt(c.now().UnixMilli(), 10)
	if err := c.kv.Put(ctx, lastKnownTimeKey, capturedAt); err != nil {
		c.logger.Warn("failed to persist location timestamp", zap.Error(err))
		return false
	}

	c.logger.Debug("location sample cached",
		zap.Float64("latitude", fix.Latitude),
		zap.Float64("longitude", fix.Longitude),
	)
	return true
}

// Cached returns the persisted sample only while it is younger than maxAge;
// otherwise nil. Storage problems also read as absent.
func (c *Cache) Cached(ctx context.Context, maxAge time.Duration) *Fix {
	raw, err := c.kv.Get(ctx, lastKnownKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("failed to read cached location", zap.Error(err))
		}
		return nil
	}
	capturedAtRaw, err := c.kv.Get(ctx, lastKnownTimeKey)
	if err != nil {
		return nil
	}

	capturedAt, err := strconv.ParseInt(capturedAtRaw, 10, 64)
	if err != nil {
		return nil
	}
	if c.now().UnixMilli()-capturedAt > maxAge.Milliseconds() {
		return nil
	}

	var fix Fix
	if err := json.Unmarshal([]byte(raw), &fix); err != nil {
		return nil
	}
	return &fix
}

// TriggerBackgroundRefresh spawns a detached warm-up. No handle is returned;
// a failure is observable only as the next Cached miss.
func (c *Cache) TriggerBackgroundRefresh() {
	if !c.limiter.Allow() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), acquisitionTimeout)
		defer cancel()
		if !c.StartBackgroundAcquisition(ctx) {
			c.logger.Debug("background location refresh did not produce a sample")
		}
	}()
}

// WaitForLocation polls the cache up to maxRetries times, firing a background
// refresh and sleeping delay between checks. The trigger is not awaited, so
// acquisition gets the full delay window to land. Returns nil when no sample
// appears within the bound.
func (c *Cache) WaitForLocation(ctx context.Context, maxRetries int, delay time.Duration) *Fix {
	if maxRetries <= 0 {
		maxRetries = DefaultWaitRetries
	}
	if delay <= 0 {
		delay = DefaultWaitDelay
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if fix := c.Cached(ctx, c.maxAge); fix != nil {
			return fix
		}
		if ctx.Err() != nil {
			return nil
		}

		c.TriggerBackgroundRefresh()
		c.sleep(ctx, delay)
	}

	return nil
}

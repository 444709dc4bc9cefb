package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/store"
)

// stateKeyPrefix namespaces attendance records. A device may hold records for
// employees other than the one currently signed in, so the purge sweeps the
// whole prefix instead of a fixed key list.
const stateKeyPrefix = "attendance_state:"

func stateKey(employeeID string) string {
	return stateKeyPrefix + employeeID
}

// Storage is the slice of the device store this package needs.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

//go:generate mockgen -source=attendance_store.go -destination=mock/attendance_store_mock.go -package=mock
type StateStore interface {
	// Save overwrites the record for employeeID, stamping CachedAt. This is
	// the only mutator.
	Save(ctx context.Context, employeeID string, lastAction Action, checkIn, checkOut *string) error
	// Load returns nil when no record exists.
	Load(ctx context.Context, employeeID string) (*Record, error)
	// PurgeAll removes every attendance record on the device.
	PurgeAll(ctx context.Context) error
}

type stateStore struct {
	kv  Storage
	now func() time.Time
}

func NewStateStore(kv Storage) StateStore {
	return &stateStore{kv: kv, now: time.Now}
}

func (s *stateStore) Save(ctx context.Context, employeeID string, lastAction Action, checkIn, checkOut *string) error {
	rec := Record{
		EmployeeID:   employeeID,
		LastAction:   lastAction,
		CheckInTime:  checkIn,
		CheckOutTime: checkOut,
		CachedAt:     s.now().UTC(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, stateKey(employeeID), string(raw))
}

func (s *stateStore) Load(ctx context.Context, employeeID string) (*Record, error) {
	raw, err := s.kv.Get(ctx, stateKey(employeeID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// an unreadable record is treated as absent rather than poisoning
		// every sync after an app update
		return nil, nil
	}
	return &rec, nil
}

func (s *stateStore) PurgeAll(ctx context.Context) error {
	_, err := s.kv.DeleteByPrefix(ctx, stateKeyPrefix)
	return err
}

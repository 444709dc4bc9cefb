package credential

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/apperror"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/store"
	"github.com/stretchr/testify/assert"
)

type fakeStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: map[string]string{}}
}

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

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func TestToken_SingleFlight(t *testing.T) {
	var mints int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&mints, 1)
		<-release
		w.Write([]byte(`{"data":"tok-1"}`))
	}))
	defer srv.Close()

	kv := newFakeStorage()
	s := NewStore(srv.Client(), srv.URL, "secret", kv, nil)

	const n = 10
	tokens := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = s.Token(context.Background())
		}(i)
	}

	// let every caller reach the in-flight mint, then settle it
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&mints))
	for i := 0; i < n; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, "tok-1", tokens[i])
	}

	// success persisted for cold start
	v, err := kv.Get(context.Background(), tokenKey)
	assert.NoError(t, err)
	assert.Equal(t, "tok-1", v)
}

func TestToken_ColdStartUsesDurableCopy(t *testing.T) {
	var mints int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&mints, 1)
		w.Write([]byte(`{"data":"unexpected"}`))
	}))
	defer srv.Close()

	kv := newFakeStorage()
	kv.Put(context.Background(), tokenKey, "stored-token")

	s := NewStore(srv.Client(), srv.URL, "secret", kv, nil)
	tok, err := s.Token(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "stored-token", tok)
	assert.Equal(t, int32(0), atomic.LoadInt32(&mints))
}

func TestRefresh_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":[{"message":"invalid hrms secret"}]}`))
	}))
	defer srv.Close()

	s := NewStore(srv.Client(), srv.URL, "bad", newFakeStorage(), nil)
	_, err := s.Refresh(context.Background())
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.CodeAuthProvider, appErr.Code)
	assert.Equal(t, "invalid hrms secret", appErr.Message)
}

func TestRefresh_MissingTokenField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	s := NewStore(srv.Client(), srv.URL, "secret", newFakeStorage(), nil)
	_, err := s.Refresh(context.Background())

	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.CodeAuthProvider, appErr.Code)
}

func TestRefresh_AllowsNewAttemptAfterFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data":"tok-2"}`))
	}))
	defer srv.Close()

	s := NewStore(srv.Client(), srv.URL, "secret", newFakeStorage(), nil)

	_, err := s.Refresh(context.Background())
	assert.Error(t, err)

	// the handle settled, so the next need starts a fresh mint
	tok, err := s.Refresh(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClear_DropsMemoryAndDurableCopies(t *testing.T) {
	kv := newFakeStorage()
	kv.Put(context.Background(), tokenKey, "stored-token")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":"fresh"}`))
	}))
	defer srv.Close()

	s := NewStore(srv.Client(), srv.URL, "secret", kv, nil)
	tok, _ := s.Token(context.Background())
	assert.Equal(t, "stored-token", tok)

	assert.NoError(t, s.Clear(context.Background()))
	_, err := kv.Get(context.Background(), tokenKey)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// next need mints instead of resurrecting the old token
	tok, err = s.Token(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "fresh", tok)
}

package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/apperror"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	tokenKey  = "session:hrms_bearer_token"
	refreshID = "hrms_bearer_token"
	mintPath  = "/auth/GenerateHrmsBearerToken"
)

// Storage is the slice of the device store the credential layer needs.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

//go:generate mockgen -source=credential_store.go -destination=mock/credential_store_mock.go -package=mock
type Store interface {
	// Token returns the cached bearer token, minting one if none exists.
	Token(ctx context.Context) (string, error)
	// Refresh mints a new token. Concurrent callers attach to the in-flight
	// mint instead of starting their own; all observe the same outcome.
	Refresh(ctx context.Context) (string, error)
	// Clear drops the token from memory and durable storage.
	Clear(ctx context.Context) error
}

type credentialStore struct {
	httpClient *http.Client
	baseURL    string
	secret     string
	kv         Storage
	logger     *zap.Logger

	mu     sync.Mutex
	cached string
	loaded bool // durable storage consulted once, on cold start

	sf singleflight.Group
}

func NewStore(client *http.Client, baseURL, secret string, kv Storage, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &credentialStore{
		httpClient: client,
		baseURL:    baseURL,
		secret:     secret,
		kv:         kv,
		logger:     logger,
	}
}

func (s *credentialStore) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if !s.loaded {
		s.loaded = true
		if stored, err := s.kv.Get(ctx, tokenKey); err == nil {
			s.cached = stored
		} else if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("token cold-start load failed", zap.Error(err))
		}
	}
	token := s.cached
	s.mu.Unlock()

	if token != "" {
		return token, nil
	}
	return s.Refresh(ctx)
}

type mintResponse struct {
	Data  string `json:"data"`
	Error []struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *credentialStore) Refresh(ctx context.Context) (string, error) {
	v, err, shared := s.sf.Do(refreshID, func() (any, error) {
		return s.mint(ctx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		s.logger.Debug("token refresh shared with in-flight mint")
	}
	return v.(string), nil
}

func (s *credentialStore) mint(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{"hrms_secret": s.secret})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+mintPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeNetworkUnavailable,
			apperror.ErrNetworkUnavailable.Message, 0)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var parsed mintResponse
	if err := json.Unmarshal(raw, &parsed); err != nil && len(raw) > 0 {
		s.logger.Warn("failed to parse token mint response", zap.Error(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := "Unable to generate HRMS token"
		if len(parsed.Error) > 0 && parsed.Error[0].Message != "" {
			detail = parsed.Error[0].Message
		}
		s.logger.Error("token mint rejected",
			zap.Int("status", resp.StatusCode),
		)
		return "", apperror.NewAuthProviderError(
			apperror.NewHTTPError(resp.StatusCode, string(raw)), detail)
	}

	if parsed.Data == "" {
		return "", apperror.NewAuthProviderError(nil, "HRMS token missing in response")
	}

	s.mu.Lock()
	s.cached = parsed.Data
	s.loaded = true
	s.mu.Unlock()

	if err := s.kv.Put(ctx, tokenKey, parsed.Data); err != nil {
		// in-memory cache stays authoritative; persistence is best effort
		s.logger.Warn("failed to persist bearer token", zap.Error(err))
	}

	s.logger.Info("bearer token refreshed")
	return parsed.Data, nil
}

func (s *credentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cached = ""
	s.loaded = true
	s.mu.Unlock()
	return s.kv.Delete(ctx, tokenKey)
}

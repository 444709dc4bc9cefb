package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/credential"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/apperror"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/contextutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Payload is a leniently decoded response body. Endpoints in this backend are
// not consistent about shape, so the gateway hands callers the raw object and
// leaves field probing to them.
type Payload map[string]any

//go:generate mockgen -source=gateway.go -destination=mock/gateway_mock.go -package=mock
type Gateway interface {
	// PostJSON executes an authenticated POST. An absent or invalid JSON body
	// on a 2xx response resolves to an empty Payload, never a parse error.
	PostJSON(ctx context.Context, path string, body any) (Payload, error)
}

type gateway struct {
	httpClient *http.Client
	baseURL    string
	creds      credential.Store
	logger     *zap.Logger
}

func New(client *http.Client, baseURL string, creds credential.Store, logger *zap.Logger) Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gateway{
		httpClient: client,
		baseURL:    baseURL,
		creds:      creds,
		logger:     logger,
	}
}

func (g *gateway) PostJSON(ctx context.Context, path string, body any) (Payload, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, "invalid request payload", 0)
	}

	rid := contextutil.GetRequestID(ctx)
	if rid == "" {
		rid = uuid.NewString()
		ctx = contextutil.WithRequestID(ctx, rid)
	}

	token, err := g.creds.Token(ctx)
	if err != nil {
		return nil, err
	}

	payload, status, err := g.do(ctx, path, raw, token)
	if err != nil {
		return nil, err
	}

	// token expired: refresh once and retry, first attempt only
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		g.logger.Debug("auth rejected, refreshing token",
			zap.String("request_id", rid),
			zap.String("employee_id", contextutil.GetEmployeeID(ctx)),
			zap.String("path", path),
			zap.Int("status", status),
		)
		newToken, err := g.creds.Refresh(ctx)
		if err != nil {
			return nil, err
		}

		payload, status, err = g.do(ctx, path, raw, newToken)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			g.logger.Warn("auth rejected after refresh, session expired",
				zap.String("request_id", rid),
				zap.String("path", path),
			)
			return nil, apperror.ErrSessionExpired
		}
	}

	return payload, nil
}

// do issues one attempt. A 401/403 is reported through the status return so
// the caller decides on the retry; every other non-2xx becomes an error here.
func (g *gateway) do(ctx context.Context, path string, body []byte, token string) (Payload, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.CodeNetworkUnavailable,
			apperror.ErrNetworkUnavailable.Message, 0)
	}
	defer resp.Body.Close()

	text, _ := io.ReadAll(resp.Body)

	payload := Payload{}
	if len(text) > 0 {
		if err := json.Unmarshal(text, &payload); err != nil {
			payload = Payload{}
		}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return payload, resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, apperror.NewHTTPError(resp.StatusCode, string(text))
	}

	return payload, resp.StatusCode, nil
}

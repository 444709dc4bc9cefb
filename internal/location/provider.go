package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Fix is one GPS sample.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LiveLocation renders the "lat,lon" form the attendance write endpoint wants.
func (f Fix) LiveLocation() string {
	return fmt.Sprintf("%g,%g", f.Latitude, f.Longitude)
}

// Provider is the device positioning source. Acquisition mirrors the mobile
// flow: permission check, one-shot permission request, service-enabled check,
// then a foreground fix.
//
//go:generate mockgen -source=provider.go -destination=mock/provider_mock.go -package=mock
type Provider interface {
	HasPermission(ctx context.Context) (bool, error)
	RequestPermission(ctx context.Context) (bool, error)
	ServiceEnabled(ctx context.Context) (bool, error)
	CurrentFix(ctx context.Context) (Fix, error)
}

// httpProvider reads position from a local location broker (gpsd bridge,
// termux-location, company MDM agent). Permission maps to the broker being
// configured; service-enabled maps to it answering at all.
type httpProvider struct {
	client   *http.Client
	endpoint string
}

func NewHTTPProvider(client *http.Client, endpoint string) Provider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &httpProvider{client: client, endpoint: endpoint}
}

func (p *httpProvider) HasPermission(ctx context.Context) (bool, error) {
	return p.endpoint != "", nil
}

func (p *httpProvider) RequestPermission(ctx context.Context) (bool, error) {
	// nothing to prompt for; an unconfigured broker stays denied
	return p.endpoint != "", nil
}

func (p *httpProvider) ServiceEnabled(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.endpoint, nil)
	if err != nil {
		return false, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, nil
	}
	resp.Body.Close()
	return resp.StatusCode < 500, nil
}

func (p *httpProvider) CurrentFix(ctx context.Context) (Fix, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return Fix{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Fix{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Fix{}, fmt.Errorf("location broker returned HTTP %d", resp.StatusCode)
	}

	var fix Fix
	if err := json.NewDecoder(resp.Body).Decode(&fix); err != nil {
		return Fix{}, fmt.Errorf("invalid location broker response: %w", err)
	}
	return fix, nil
}

package cli

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/attendance"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/config"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/credential"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/gateway"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/location"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/session"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/store"
)

// app wires the full dependency graph for one command invocation. Commands
// build it in RunE and close it on the way out.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	kv     *store.Store

	creds    credential.Store
	lms      gateway.Gateway
	location *location.Cache
	session  session.Service
	states   attendance.StateStore
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := zap.L()

	kv, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}

	creds := credential.NewStore(httpClient, cfg.UtilityAPIURL, cfg.HRMSSecret, kv, logger)
	lms := gateway.New(httpClient, cfg.LMSAPIURL, creds, logger)

	provider := location.NewHTTPProvider(httpClient, cfg.LocationEndpoint)
	loc := location.NewCache(provider, kv, cfg.LocationMaxAge(), logger)

	states := attendance.NewStateStore(kv)
	sess := session.NewService(lms, kv, creds, states, session.Crypto{
		Secret: cfg.SignInSecret,
		IV:     cfg.SignInIV,
	}, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		kv:       kv,
		creds:    creds,
		lms:      lms,
		location: loc,
		session:  sess,
		states:   states,
	}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("failed to close device store", zap.Error(err))
	}
}

// engine builds the sync engine for the signed-in employee.
func (a *app) engine(ctx context.Context) (attendance.Service, attendance.Identity, error) {
	id, err := a.session.Identity(ctx)
	if err != nil {
		return nil, attendance.Identity{}, err
	}
	svc := attendance.NewService(
		a.lms,
		a.states,
		a.location,
		id,
		a.cfg.LocationWaitRetries,
		a.cfg.LocationWaitDelay(),
		a.logger,
	)
	return svc, id, nil
}

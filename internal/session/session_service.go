package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/attendance"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/gateway"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/apperror"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/store"
	"go.uber.org/zap"
)

const (
	signInPath     = "/user/signIn"
	workspacesPath = "/user/getWorkspaces"
	usersPath      = "/user/users"
)

// Session keys on the device store. savedEmail deliberately survives logout
// so the next sign-in can prefill the address.
const (
	keyUserID       = "session:user_id"
	keyEmployeeID   = "session:employee_id"
	keyDomainName   = "session:domain_name"
	keyCompanyID    = "session:company_id"
	keyEmployeeName = "session:employee_name"
	keySavedEmail   = "session:saved_email"
)

var (
	ErrNotSignedIn = apperror.New(
		apperror.CodeInvalidInput,
		"Not signed in. Please login first.",
		http.StatusUnauthorized,
	)

	ErrInvalidCredentials = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid email or password.",
		http.StatusUnauthorized,
	)
)

// Workspace is one company/tenant an account can sign in to.
type Workspace struct {
	DomainName  string
	CompanyID   string
	CompanyName string
}

// Storage is the slice of the device store this package needs.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// TokenStore clears the cached bearer token on logout.
type TokenStore interface {
	Clear(ctx context.Context) error
}

// StatePurger drops cached attendance records on logout.
type StatePurger interface {
	PurgeAll(ctx context.Context) error
}

//go:generate mockgen -source=session_service.go -destination=mock/session_service_mock.go -package=mock
type Service interface {
	// Workspaces lists the tenants the given account can sign in to.
	Workspaces(ctx context.Context, email string) ([]Workspace, error)
	// SignIn authenticates against the chosen workspace and persists the
	// resulting identity on the device.
	SignIn(ctx context.Context, email, password string, ws Workspace) (attendance.Identity, error)
	// Identity returns the persisted identity, or ErrNotSignedIn.
	Identity(ctx context.Context) (attendance.Identity, error)
	// SavedEmail returns the last signed-in address, empty when none.
	SavedEmail(ctx context.Context) string
	// Logout clears the token, cached attendance state, and session keys.
	// The saved email is kept.
	Logout(ctx context.Context) error
}

type Crypto struct {
	Secret string
	IV     string
}

type service struct {
	gw     gateway.Gateway
	kv     Storage
	tokens TokenStore
	states StatePurger
	crypto Crypto
	logger *zap.Logger
}

func NewService(gw gateway.Gateway, kv Storage, tokens TokenStore, states StatePurger, crypto Crypto, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		gw:     gw,
		kv:     kv,
		tokens: tokens,
		states: states,
		crypto: crypto,
		logger: logger,
	}
}

func (s *service) Workspaces(ctx context.Context, email string) ([]Workspace, error) {
	if email == "" {
		return nil, apperror.New(apperror.CodeInvalidInput, "Email is required.", http.StatusBadRequest)
	}

	payload, err := s.gw.PostJSON(ctx, workspacesPath, map[string]string{"user_id": email})
	if err != nil {
		return nil, err
	}

	list, _ := payload["data"].([]any)
	workspaces := make([]Workspace, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ws := Workspace{
			DomainName:  firstString(m, "domain_name", "workspace", "domain"),
			CompanyID:   firstString(m, "company_id", "companyid"),
			CompanyName: firstString(m, "company_name", "name"),
		}
		if ws.DomainName == "" {
			continue
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, nil
}

func (s *service) SignIn(ctx context.Context, email, password string, ws Workspace) (attendance.Identity, error) {
	if email == "" || password == "" {
		return attendance.Identity{}, apperror.New(apperror.CodeInvalidInput, "Email and password are required.", http.StatusBadRequest)
	}
	if ws.DomainName == "" {
		return attendance.Identity{}, apperror.New(apperror.CodeInvalidInput, "Select a workspace first.", http.StatusBadRequest)
	}

	encrypted, err := EncryptPassword(password, s.crypto.Secret, s.crypto.IV)
	if err != nil {
		return attendance.Identity{}, fmt.Errorf("encrypt password: %w", err)
	}

	payload, err := s.gw.PostJSON(ctx, signInPath, map[string]string{
		"userid":   email,
		"password": encrypted,
		"domain":   ws.DomainName,
	})
	if err != nil {
		return attendance.Identity{}, err
	}
	if signInRejected(payload) {
		return attendance.Identity{}, ErrInvalidCredentials
	}

	profile, _ := payload["data"].(map[string]any)
	if profile == nil {
		profile = map[string]any(payload)
	}

	id := attendance.Identity{
		UserID:       firstString(profile, "user_id", "userid", "id"),
		EmployeeID:   firstString(profile, "employee_id", "emp_id"),
		EmployeeName: firstString(profile, "employee_name", "emp_name", "name"),
		DomainName:   ws.DomainName,
	}
	if id.UserID == "" {
		return attendance.Identity{}, ErrInvalidCredentials
	}

	// some tenants omit the employee id from the sign-in response
	if id.EmployeeID == "" {
		if err := s.fillEmployee(ctx, &id, ws); err != nil {
			return attendance.Identity{}, err
		}
	}

	if err := s.persist(ctx, email, id, ws); err != nil {
		return attendance.Identity{}, err
	}

	s.logger.Info("signed in",
		zap.String("employee_id", id.EmployeeID),
		zap.String("domain_name", ws.DomainName),
	)
	return id, nil
}

// fillEmployee resolves the employee record from the user directory when the
// sign-in response did not carry it.
func (s *service) fillEmployee(ctx context.Context, id *attendance.Identity, ws Workspace) error {
	payload, err := s.gw.PostJSON(ctx, usersPath, map[string]string{
		"user_emp_id": id.UserID,
		"workspace":   ws.DomainName,
	})
	if err != nil {
		return err
	}

	profile, _ := payload["data"].(map[string]any)
	if profile == nil {
		profile = map[string]any(payload)
	}
	id.EmployeeID = firstString(profile, "employee_id", "emp_id")
	if id.EmployeeName == "" {
		id.EmployeeName = firstString(profile, "employee_name", "emp_name", "name")
	}
	if id.EmployeeID == "" {
		return apperror.New(apperror.CodeInvalidInput, "User not found. Please login again.", http.StatusNotFound)
	}
	return nil
}

func (s *service) persist(ctx context.Context, email string, id attendance.Identity, ws Workspace) error {
	entries := map[string]string{
		keyUserID:       id.UserID,
		keyEmployeeID:   id.EmployeeID,
		keyDomainName:   id.DomainName,
		keyCompanyID:    ws.CompanyID,
		keyEmployeeName: id.EmployeeName,
		keySavedEmail:   email,
	}
	for key, value := range entries {
		if err := s.kv.Put(ctx, key, value); err != nil {
			return fmt.Errorf("persist session key %s: %w", key, err)
		}
	}
	return nil
}

func (s *service) Identity(ctx context.Context) (attendance.Identity, error) {
	id := attendance.Identity{
		UserID:       s.value(ctx, keyUserID),
		EmployeeID:   s.value(ctx, keyEmployeeID),
		DomainName:   s.value(ctx, keyDomainName),
		EmployeeName: s.value(ctx, keyEmployeeName),
	}
	if id.EmployeeID == "" || id.DomainName == "" {
		return attendance.Identity{}, ErrNotSignedIn
	}
	return id, nil
}

func (s *service) SavedEmail(ctx context.Context) string {
	return s.value(ctx, keySavedEmail)
}

func (s *service) Logout(ctx context.Context) error {
	var firstErr error

	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear bearer token", zap.Error(err))
		firstErr = err
	}
	if err := s.states.PurgeAll(ctx); err != nil {
		s.logger.Warn("failed to purge attendance state", zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	for _, key := range []string{keyUserID, keyEmployeeID, keyDomainName, keyCompanyID, keyEmployeeName} {
		if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to delete session key", zap.String("key", key), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.logger.Info("signed out")
	return firstErr
}

func (s *service) value(ctx context.Context, key string) string {
	v, err := s.kv.Get(ctx, key)
	if err != nil {
		return ""
	}
	return v
}

// signInRejected spots the failure sentinel a 200 sign-in response can carry.
func signInRejected(p gateway.Payload) bool {
	if p == nil {
		return true
	}
	if v, _ := p["status"].(string); v == "failed" {
		return true
	}
	if v, _ := p["statuscode"].(string); v == "500" || v == "401" {
		return true
	}
	if errs, ok := p["error"].([]any); ok && len(errs) > 0 {
		return true
	}
	return false
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

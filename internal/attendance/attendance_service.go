package attendance

import (
	"context"
	"sync"
	"time"

	attendanceerrors "github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/attendance/errors"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/gateway"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/location"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/apperror"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/contextutil"
	"go.uber.org/zap"
)

const (
	writePath      = "/addFaceData"
	detailPath     = "/getFaceData"
	lastStatusPath = "/getEmpLastAttendanceStatus"
	distancePath   = "/log-distance"

	dateLayout = "2006-01-02"
)

// Identity binds the engine to the signed-in employee.
type Identity struct {
	EmployeeID   string
	UserID       string
	DomainName   string
	EmployeeName string
}

// Locator is the slice of the location cache the engine needs.
type Locator interface {
	WaitForLocation(ctx context.Context, maxRetries int, delay time.Duration) *location.Fix
	TriggerBackgroundRefresh()
}

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	// Reconcile merges server-reported and cached attendance state into one
	// canonical record. Loss of connectivity never erases known local state;
	// only a session expiry propagates.
	Reconcile(ctx context.Context, employeeID string) (*Record, error)
	// CheckIn and CheckOut submit the action to the server and, on a
	// confirmed write, advance the local state machine.
	CheckIn(ctx context.Context) (*Record, error)
	CheckOut(ctx context.Context) (*Record, error)

	State() State
	Current() *Record
	CanCheckIn() bool
	CanCheckOut() bool
}

type service struct {
	lms    gateway.Gateway
	states StateStore
	loc    Locator
	id     Identity
	logger *zap.Logger

	waitRetries int
	waitDelay   time.Duration
	now         func() time.Time

	mu    sync.Mutex
	state State
	last  *Record
}

func NewService(lms gateway.Gateway, states StateStore, loc Locator, id Identity, waitRetries int, waitDelay time.Duration, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if waitRetries <= 0 {
		waitRetries = location.DefaultWaitRetries
	}
	if waitDelay <= 0 {
		waitDelay = location.DefaultWaitDelay
	}
	return &service{
		lms:         lms,
		states:      states,
		loc:         loc,
		id:          id,
		logger:      logger,
		waitRetries: waitRetries,
		waitDelay:   waitDelay,
		now:         time.Now,
		state:       StateUnknown,
	}
}

func (s *service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns a detached copy; the engine is the only writer of its
// record.
func (s *service) Current() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	rec := *s.last
	rec.CheckInTime = cloneTimestamp(s.last.CheckInTime)
	rec.CheckOutTime = cloneTimestamp(s.last.CheckOutTime)
	return &rec
}

func cloneTimestamp(ts *string) *string {
	if ts == nil {
		return nil
	}
	v := *ts
	return &v
}

// Check In is actionable unless already checked in; Check Out only when
// checked in.
func (s *service) CanCheckIn() bool  { return s.State() != StateCheckedIn }
func (s *service) CanCheckOut() bool { return s.State() == StateCheckedIn }

func (s *service) setState(rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = rec
	if rec == nil {
		s.state = StateUnknown
		return
	}
	s.state = rec.LastAction.State()
}

// serverView is what one successful query contributes to the merge.
type serverView struct {
	action   Action
	checkIn  *string
	checkOut *string
}

func (s *service) Reconcile(ctx context.Context, employeeID string) (*Record, error) {
	if employeeID == "" {
		return nil, attendanceerrors.ErrMissingEmployee
	}
	logger := contextutil.GetLogger(ctx, s.logger)

	cached, err := s.states.Load(ctx, employeeID)
	if err != nil {
		logger.Warn("failed to load cached attendance state", zap.Error(err))
		cached = nil
	}

	view, err := s.queryServer(ctx, employeeID)
	if err != nil {
		if apperror.IsSessionExpired(err) {
			return nil, err
		}
		// both endpoints unreachable: the cache stays the effective state
		logger.Warn("reconcile degraded, keeping cached state",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		s.setState(cached)
		return cached, nil
	}

	merged := mergeRecord(employeeID, view, cached)

	if err := s.states.Save(ctx, merged.EmployeeID, merged.LastAction, merged.CheckInTime, merged.CheckOutTime); err != nil {
		logger.Error("failed to persist reconciled state", zap.Error(err))
	}
	s.setState(&merged)

	logger.Info("attendance state reconciled",
		zap.String("employee_id", employeeID),
		zap.String("last_action", string(merged.LastAction)),
	)
	return &merged, nil
}

// queryServer tries the detailed history endpoint first and falls back to the
// lightweight last-status endpoint when the primary raises or carries the
// embedded failure sentinel.
func (s *service) queryServer(ctx context.Context, employeeID string) (serverView, error) {
	today := s.now().Format(dateLayout)
	payload, err := s.lms.PostJSON(ctx, detailPath, detailQueryRequest{
		DomainName: s.id.DomainName,
		FromDate:   today,
		ToDate:     today,
		EmpID:      employeeID,
	})
	if err == nil && !payloadFailed(payload) {
		return viewFromDetail(payload), nil
	}
	if apperror.IsSessionExpired(err) {
		return serverView{}, err
	}
	if err != nil {
		s.logger.Debug("detail query failed, using last-status fallback", zap.Error(err))
	} else {
		s.logger.Debug("detail query degraded, using last-status fallback")
		err = apperror.ErrQueryDegraded
	}

	fallback, ferr := s.lms.PostJSON(ctx, lastStatusPath, lastStatusRequest{
		DomainName: s.id.DomainName,
		EmployeeID: employeeID,
	})
	if ferr != nil {
		return serverView{}, ferr
	}
	if payloadFailed(fallback) {
		return serverView{}, err
	}

	// the fallback knows the action label, never timestamps
	return serverView{action: ParseAction(extractActionLabel(fallback))}, nil
}

// viewFromDetail derives the server view from the most recent record by
// arrival order: a present checkout wins, else a present check-in.
func viewFromDetail(payload gateway.Payload) serverView {
	rows := dataRecords(payload)
	if len(rows) == 0 {
		return serverView{}
	}
	latest := rows[len(rows)-1]

	var view serverView
	if in := firstField(latest, checkInFields); in != "" {
		view.checkIn = &in
	}
	if out := firstField(latest, checkOutFields); out != "" {
		view.checkOut = &out
		view.action = ActionCheckOut
	} else if view.checkIn != nil {
		view.action = ActionCheckIn
	}
	return view
}

// mergeRecord applies the merge rule: the server is authoritative for the
// action, the cache fills in missing timestamps.
func mergeRecord(employeeID string, view serverView, cached *Record) Record {
	checkIn := view.checkIn
	checkOut := view.checkOut
	if checkIn == nil && cached != nil {
		checkIn = cached.CheckInTime
	}
	if checkOut == nil && cached != nil {
		checkOut = cached.CheckOutTime
	}

	action := view.action
	if action == ActionUnknown && cached != nil {
		action = cached.LastAction
	}

	switch action {
	case ActionCheckIn:
		// a fresh cycle closes any stale prior checkout
		checkOut = nil
	case ActionCheckOut:
	default:
		// nothing usable anywhere: there is genuinely no known state
		checkIn = nil
		checkOut = nil
	}

	return Record{
		EmployeeID:   employeeID,
		LastAction:   action,
		CheckInTime:  checkIn,
		CheckOutTime: checkOut,
	}
}

func (s *service) CheckIn(ctx context.Context) (*Record, error) {
	if !s.CanCheckIn() {
		return nil, attendanceerrors.ErrAlreadyCheckedIn
	}
	return s.submit(ctx, ActionCheckIn)
}

func (s *service) CheckOut(ctx context.Context) (*Record, error) {
	if !s.CanCheckOut() {
		return nil, attendanceerrors.ErrNotCheckedIn
	}
	return s.submit(ctx, ActionCheckOut)
}

// submit performs the confirmed server write and then advances the state
// machine with the authoritative timestamp: the server's echo when present,
// the locally generated record time otherwise.
func (s *service) submit(ctx context.Context, action Action) (*Record, error) {
	if s.id.EmployeeID == "" {
		return nil, attendanceerrors.ErrMissingEmployee
	}
	if s.id.DomainName == "" {
		return nil, attendanceerrors.ErrMissingWorkspace
	}
	logger := contextutil.GetLogger(ctx, s.logger)

	fix := s.loc.WaitForLocation(ctx, s.waitRetries, s.waitDelay)
	if fix == nil {
		return nil, attendanceerrors.ErrLocationRequired
	}

	recordTime := LocalTimestamp(s.now())
	payload, err := s.lms.PostJSON(ctx, writePath, writeRequest{
		DomainName:   s.id.DomainName,
		UserID:       s.id.UserID,
		EmpID:        s.id.EmployeeID,
		RecordTime:   recordTime,
		EntryType:    string(action),
		LiveLocation: fix.LiveLocation(),
	})
	if err != nil {
		return nil, err
	}

	echo := checkInEchoFields
	if action == ActionCheckOut {
		echo = checkOutEchoFields
	}
	ts := echoedTimestamp(payload, echo)
	if ts == "" {
		ts = recordTime
	}

	s.logDistanceAsync()

	cached, err := s.states.Load(ctx, s.id.EmployeeID)
	if err != nil {
		logger.Warn("failed to load cached state after write", zap.Error(err))
	}

	var rec Record
	switch action {
	case ActionCheckIn:
		rec = Record{
			EmployeeID:  s.id.EmployeeID,
			LastAction:  ActionCheckIn,
			CheckInTime: &ts,
		}
	case ActionCheckOut:
		checkIn := echoedCheckIn(payload)
		if checkIn == nil && cached != nil {
			checkIn = cached.CheckInTime
		}
		rec = Record{
			EmployeeID:   s.id.EmployeeID,
			LastAction:   ActionCheckOut,
			CheckInTime:  checkIn,
			CheckOutTime: &ts,
		}
	}

	if err := s.states.Save(ctx, rec.EmployeeID, rec.LastAction, rec.CheckInTime, rec.CheckOutTime); err != nil {
		logger.Error("failed to persist attendance action", zap.Error(err))
	}
	s.setState(&rec)

	logger.Info("attendance action recorded",
		zap.String("employee_id", s.id.EmployeeID),
		zap.String("entry_type", string(action)),
		zap.String("record_time", ts),
	)
	return &rec, nil
}

func echoedCheckIn(payload gateway.Payload) *string {
	if nested := dataObject(payload); nested != nil {
		if v := firstField(nested, checkInFields); v != "" {
			return &v
		}
	}
	if v := firstField(map[string]any(payload), checkInFields); v != "" {
		return &v
	}
	return nil
}

// logDistanceAsync is best-effort analytics; a failure is only visible in
// debug logs.
func (s *service) logDistanceAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := s.lms.PostJSON(ctx, distancePath, distanceLogRequest{
			EmpID:     s.id.EmployeeID,
			Name:      s.distanceName(),
			Distance:  0.3,
			Timestamp: s.now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			s.logger.Debug("distance log failed", zap.Error(err))
		}
	}()
}

func (s *service) distanceName() string {
	if s.id.EmployeeName != "" {
		return s.id.EmployeeName
	}
	return "Mobile User"
}

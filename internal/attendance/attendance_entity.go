package attendance

import (
	"strings"
	"time"
)

// Action is the last attendance event for an employee.
type Action string

const (
	ActionUnknown  Action = ""
	ActionCheckIn  Action = "Check In"
	ActionCheckOut Action = "Check Out"
)

// ParseAction folds the label variants seen across backend responses into
// the canonical pair. Anything unrecognized is Unknown.
func ParseAction(raw string) Action {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "check in", "check-in", "checkin", "in":
		return ActionCheckIn
	case "check out", "check-out", "checkout", "out":
		return ActionCheckOut
	default:
		return ActionUnknown
	}
}

// State is the engine's view of the attendance cycle.
type State string

const (
	StateUnknown    State = "UNKNOWN"
	StateCheckedIn  State = "CHECKED_IN"
	StateCheckedOut State = "CHECKED_OUT"
)

func (a Action) State() State {
	switch a {
	case ActionCheckIn:
		return StateCheckedIn
	case ActionCheckOut:
		return StateCheckedOut
	default:
		return StateUnknown
	}
}

// recordTimeLayout is the backend's local-time format: ISO-8601 without a
// trailing 'Z' or zone offset. Timestamps round-trip in this exact form.
const recordTimeLayout = "2006-01-02T15:04:05"

// LocalTimestamp renders t the way the attendance write endpoint expects.
func LocalTimestamp(t time.Time) string {
	return t.Format(recordTimeLayout)
}

// Record is the durable last-known attendance state for one employee.
// Invariants: a Check In clears any prior checkout; a Check Out preserves the
// paired check-in when known.
type Record struct {
	EmployeeID   string    `json:"employee_id"`
	LastAction   Action    `json:"last_action"`
	CheckInTime  *string   `json:"check_in_time,omitempty"`
	CheckOutTime *string   `json:"check_out_time,omitempty"`
	CachedAt     time.Time `json:"cached_at"`
}

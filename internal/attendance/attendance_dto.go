package attendance

import (
	"fmt"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/gateway"
)

// Wire shapes for the LMS attendance endpoints.

type writeRequest struct {
	DomainName   string `json:"domain_name"`
	UserID       string `json:"user_id"`
	EmpID        string `json:"emp_id"`
	RecordTime   string `json:"record_time"`
	EntryType    string `json:"entry_type"`
	LiveLocation string `json:"live_location"`
}

type detailQueryRequest struct {
	DomainName string `json:"domain_name"`
	FromDate   string `json:"from_date"`
	ToDate     string `json:"to_date"`
	EmpID      string `json:"emp_id"`
}

type lastStatusRequest struct {
	DomainName string `json:"domain_name"`
	EmployeeID string `json:"employee_id"`
}

type distanceLogRequest struct {
	EmpID          string  `json:"emp_id"`
	Name           string  `json:"name"`
	Distance       float64 `json:"distance"`
	Timestamp      string  `json:"timestamp"`
	UserDescriptor string  `json:"userDescriptor"`
	LiveDescriptor string  `json:"liveDescriptor"`
}

// The backend is not consistent about field names. Each semantic field gets
// an ordered candidate list, evaluated first-present-wins, so contract drift
// touches exactly this block.
var (
	actionFields   = []string{"last_action", "entry_type", "action", "status"}
	checkInFields  = []string{"check_in_time", "checkin_time", "in_time"}
	checkOutFields = []string{"check_out_time", "checkout_time", "out_time"}

	// Echo candidates are per action: a checkout response often echoes the
	// paired check_in_time alongside, and that must never be read as the
	// checkout timestamp.
	checkInEchoFields  = []string{"record_time", "check_in_time"}
	checkOutEchoFields = []string{"record_time", "check_out_time"}
)

// payloadFailed detects the sentinel failure a 200 response can carry. It is
// a query failure, never a valid empty result.
func payloadFailed(p gateway.Payload) bool {
	if p == nil {
		return true
	}
	if asString(p["statuscode"]) == "500" {
		return true
	}
	if asString(p["status"]) == "failed" {
		return true
	}
	return false
}

// dataRecords pulls the ordered record list out of {data: [...]}.
func dataRecords(p gateway.Payload) []map[string]any {
	list, ok := p["data"].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// dataObject pulls {data: {...}} when the endpoint nests a single object.
func dataObject(p gateway.Payload) map[string]any {
	m, _ := p["data"].(map[string]any)
	return m
}

// firstField probes candidates in priority order and returns the first
// non-empty value.
func firstField(m map[string]any, candidates []string) string {
	for _, key := range candidates {
		if v := asString(m[key]); v != "" {
			return v
		}
	}
	return ""
}

// extractActionLabel finds the action label of a last-status response,
// probing the top level and the nested data object.
func extractActionLabel(p gateway.Payload) string {
	if nested := dataObject(p); nested != nil {
		if v := firstField(nested, actionFields); v != "" {
			return v
		}
	}
	return firstField(map[string]any(p), actionFields)
}

// echoedTimestamp finds a server-side timestamp echo in a write response, at
// either nesting level the backend has been seen to use. The candidate list
// comes from the action being written.
func echoedTimestamp(p gateway.Payload, candidates []string) string {
	if nested := dataObject(p); nested != nil {
		if v := firstField(nested, candidates); v != "" {
			return v
		}
	}
	return firstField(map[string]any(p), candidates)
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

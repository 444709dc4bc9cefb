package apperror

import "net/http"

// Operation contexts for UserMessage. The context refines the fallback text
// for errors that carry no more specific classification.
const (
	ContextLogin      = "login"
	ContextWorkspace  = "workspace"
	ContextAttendance = "attendance"
	ContextLocation   = "location"
)

// UserMessage converts a classified error into one of a small set of stable,
// user-facing strings. Technical detail (stack traces, raw bodies) never
// crosses this boundary.
func UserMessage(err error, opContext string) string {
	if err == nil {
		return "Something went wrong. Please try again."
	}

	appErr := Classify(err)

	switch appErr.Code {
	case CodeSessionExpired:
		return "Your session has expired. Please login again."
	case CodeNetworkUnavailable:
		return "No internet connection. Please check your network and try again."
	case CodeLocationUnavailable:
		return "Unable to get your location. Please enable location and try again."
	case CodeHTTPError:
		switch appErr.HTTPStatus {
		case http.StatusInternalServerError:
			return "Server is temporarily unavailable. Please try again later."
		case http.StatusBadGateway:
			return "Service is temporarily down. Please try again later."
		case http.StatusServiceUnavailable:
			return "Service is under maintenance. Please try again later."
		case http.StatusGatewayTimeout:
			return "Request timeout. Please try again."
		case http.StatusNotFound:
			return "Service not found. Please contact support."
		}
	}

	switch opContext {
	case ContextLogin:
		return "Login failed. Please check your credentials and try again."
	case ContextWorkspace:
		return "No workspace found for this email. Please check and try again."
	case ContextAttendance:
		return "Unable to record attendance. Please try again."
	case ContextLocation:
		return "Unable to get your location. Please enable location and try again."
	}

	return "Something went wrong. Please try again later."
}

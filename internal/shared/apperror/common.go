package apperror

import (
	"fmt"
	"net/http"
)

var (
	ErrSessionExpired = New(
		CodeSessionExpired,
		"Your session has expired. Please login again.",
		http.StatusUnauthorized,
	)

	ErrNetworkUnavailable = New(
		CodeNetworkUnavailable,
		"No internet connection. Please check your network and try again.",
		0,
	)

	ErrLocationUnavailable = New(
		CodeLocationUnavailable,
		"Unable to get your location. Please enable location and try again.",
		0,
	)

	ErrQueryDegraded = New(
		CodeQueryDegraded,
		"Server returned an unusable response.",
		0,
	)

	ErrUnknown = New(
		CodeUnknown,
		"Something went wrong. Please try again later.",
		0,
	)
)

// NewHTTPError wraps a non-2xx response that is neither an auth failure nor a
// transport failure. The raw body stays inside Err and never reaches the UI.
func NewHTTPError(status int, body string) *AppError {
	return &AppError{
		Code:       CodeHTTPError,
		Message:    fmt.Sprintf("Request failed with HTTP %d", status),
		HTTPStatus: status,
		Err:        fmt.Errorf("http %d: %s", status, body),
	}
}

// NewAuthProviderError covers rejected or malformed token mint responses.
func NewAuthProviderError(err error, detail string) *AppError {
	return &AppError{
		Code:    CodeAuthProvider,
		Message: detail,
		Err:     err,
	}
}

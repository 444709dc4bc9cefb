package apperror

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// Classify maps any failure signal to the taxonomy. Errors already shaped as
// *AppError pass through untouched; transport-level failures become
// NETWORK_UNAVAILABLE; everything else is UNKNOWN with the original error
// preserved in Err for logs.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, CodeNetworkUnavailable, ErrNetworkUnavailable.Message, 0)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return Wrap(err, CodeNetworkUnavailable, ErrNetworkUnavailable.Message, 0)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Wrap(err, CodeNetworkUnavailable, ErrNetworkUnavailable.Message, 0)
	}

	return Wrap(err, CodeUnknown, ErrUnknown.Message, 0)
}

// IsSessionExpired reports whether the failure must force re-authentication
// and a full local purge.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

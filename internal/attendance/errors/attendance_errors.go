package attendanceerrors

import (
	"net/http"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/apperror"
)

var (
	ErrLocationRequired = apperror.New(
		apperror.CodeLocationUnavailable,
		"Cannot mark attendance without location.",
		0,
	)

	ErrAlreadyCheckedIn = apperror.New(
		apperror.CodeInvalidInput,
		"You are already checked in.",
		http.StatusConflict,
	)

	ErrNotCheckedIn = apperror.New(
		apperror.CodeInvalidInput,
		"Check in before checking out.",
		http.StatusConflict,
	)

	ErrMissingEmployee = apperror.New(
		apperror.CodeInvalidInput,
		"User not found. Please login again.",
		http.StatusBadRequest,
	)

	ErrMissingWorkspace = apperror.New(
		apperror.CodeInvalidInput,
		"Workspace not found. Please login again.",
		http.StatusBadRequest,
	)
)

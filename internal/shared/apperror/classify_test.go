package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_PassthroughAndWrap(t *testing.T) {
	assert.Nil(t, Classify(nil))

	direct := Classify(ErrSessionExpired)
	assert.Equal(t, CodeSessionExpired, direct.Code)

	wrapped := Classify(fmt.Errorf("calling gateway: %w", ErrSessionExpired))
	assert.Equal(t, CodeSessionExpired, wrapped.Code)

	transport := Classify(&url.Error{Op: "Post", URL: "https://hrms.example", Err: errors.New("connection refused")})
	assert.Equal(t, CodeNetworkUnavailable, transport.Code)

	timeout := Classify(context.DeadlineExceeded)
	assert.Equal(t, CodeNetworkUnavailable, timeout.Code)

	unknown := Classify(errors.New("boom"))
	assert.Equal(t, CodeUnknown, unknown.Code)
}

func TestIsSessionExpired_MatchesOnCode(t *testing.T) {
	err := Wrap(errors.New("http 403"), CodeSessionExpired, "expired", 403)
	assert.True(t, IsSessionExpired(err))
	assert.False(t, IsSessionExpired(ErrNetworkUnavailable))
}

func TestUserMessage_NeverLeaksRawDetail(t *testing.T) {
	raw := NewHTTPError(500, `{"trace":"goroutine 1 [running]"}`)
	msg := UserMessage(raw, ContextAttendance)
	assert.Equal(t, "Server is temporarily unavailable. Please try again later.", msg)
	assert.NotContains(t, msg, "goroutine")

	assert.Equal(t,
		"Unable to record attendance. Please try again.",
		UserMessage(errors.New("weird"), ContextAttendance),
	)
	assert.Equal(t,
		"Your session has expired. Please login again.",
		UserMessage(ErrSessionExpired, ContextLogin),
	)
}

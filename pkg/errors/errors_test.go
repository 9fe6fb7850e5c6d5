package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindNotAuthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindTimeConflict, http.StatusConflict},
		{KindInvalidStatus, http.StatusUnprocessableEntity},
		{KindValidationError, http.StatusUnprocessableEntity},
		{KindInsertFailed, http.StatusInternalServerError},
		{KindFetchFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := New(tt.kind, "boom")
			assert.Equal(t, tt.status, err.StatusCode())
		})
	}
}

func TestKindOf(t *testing.T) {
	err := Forbidden("no rights")
	assert.Equal(t, KindForbidden, KindOf(err))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, KindForbidden, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindForbidden))

	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := fmt.Errorf("pq: connection refused")
	err := Failed(KindInsertFailed, "failed to create booking", cause)

	assert.Contains(t, err.Error(), "failed to create booking")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, err.Unwrap())
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("mark: %w", Clone(ErrDuplicateCompletion, "already done"))
	appErr := FromError(wrapped)
	assert.Equal(t, ErrDuplicateCompletion.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "already done", appErr.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("boom")
	appErr := FromError(cause)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
}

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrAccountLocked, "locked until later")
	assert.True(t, Is(err, ErrAccountLocked))
	assert.False(t, Is(err, ErrInvalidCredentials))
	assert.False(t, Is(errors.New("plain"), ErrAccountLocked))
}

func TestStoreHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Store(cause, "failed to load courses")
	assert.Equal(t, ErrDataStore.Code, err.Code)
	assert.Equal(t, "failed to load courses", err.Message)
	assert.ErrorIs(t, err, cause)
}

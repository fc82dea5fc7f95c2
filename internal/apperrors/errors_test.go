package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := New(CodeForbidden, "only the receiver may answer")

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("update status: %w", err)
	assert.True(t, errors.Is(wrapped, ErrForbidden))
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrDuplicateSkill, http.StatusConflict},
		{ErrInvalidTransition, http.StatusConflict},
		{ErrInvalidTarget, http.StatusBadRequest},
		{ErrValidation, http.StatusBadRequest},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{New(Code("SOMETHING_ELSE"), "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestFrom(t *testing.T) {
	cause := errors.New("connection reset")

	got := From(fmt.Errorf("query: %w", Wrap(cause, CodeNotFound, "user not found")))
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.ErrorIs(t, got, cause)

	internal := From(cause)
	assert.Equal(t, CodeInternal, internal.Code)
	assert.Equal(t, "internal server error", internal.Message)
}

func TestError_ErrorString(t *testing.T) {
	assert.Equal(t, "[NOT_FOUND] not found", ErrNotFound.Error())
	assert.Equal(t, "[INTERNAL_ERROR] internal server error: boom", Internal(errors.New("boom")).Error())
}

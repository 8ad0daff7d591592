package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		typ    ErrorType
		status int
	}{
		{New(ErrNotConfigured, "Gemini API key not configured"), TypeConfiguration, http.StatusInternalServerError},
		{Wrap(ErrGenerationUnavailable, "unreachable", errors.New("dial tcp")), TypeGenerationUnavailable, http.StatusInternalServerError},
		{Wrap(ErrGenerationFailed, "bad reply", errors.New("500")), TypeGenerationFailed, http.StatusInternalServerError},
		{New(ErrNoArtifactRecovered, ""), TypeNoArtifactRecovered, http.StatusInternalServerError},
		{Persistence("insert", errors.New("disk full")), TypePersistenceFailed, http.StatusInternalServerError},
		{New(ErrValidation, "session_id is required"), TypeValidation, http.StatusUnprocessableEntity},
		{New(ErrNotFound, "Workflow not found"), TypeNotFound, http.StatusNotFound},
		{errors.New("plain"), TypeInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.typ, TypeOf(c.err), c.err.Error())
		assert.Equal(t, c.status, Status(c.err), c.err.Error())

		// kinds survive further wrapping
		wrapped := fmt.Errorf("outer: %w", c.err)
		assert.Equal(t, c.typ, TypeOf(wrapped))
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrPersistenceFailed, "append message", cause)

	assert.Equal(t, "append message: connection reset", err.Error())
	assert.True(t, errors.Is(err, ErrPersistenceFailed))
	assert.True(t, errors.Is(err, cause))

	assert.Equal(t, "not found", New(ErrNotFound, "").Error())
}

func TestWrapKeepsExistingKind(t *testing.T) {
	inner := New(ErrValidation, "bad")
	assert.Same(t, inner, Wrap(ErrValidation, "again", inner))
	assert.Nil(t, Persistence("noop", nil))
}

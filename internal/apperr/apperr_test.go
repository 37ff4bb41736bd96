package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Auth("no token"), http.StatusUnauthorized},
		{Forbidden("admins only"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("duplicate"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, KindOf(c.err).Status(), c.err.Error())
	}
}

func TestWrappedKindSurvives(t *testing.T) {
	err := fmt.Errorf("create video: %w", Conflict("A video with the same title already exists in this section."))
	assert.True(t, Is(err, KindConflict))
	assert.Equal(t, "A video with the same title already exists in this section.", PublicMessage(err))
}

func TestInternalMessageDoesNotLeak(t *testing.T) {
	cause := errors.New(`pq: relation "course_sections" does not exist`)
	err := Wrap(cause, "failed to list sections")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Internal server error", PublicMessage(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "course_sections")
}

func TestWrapKeepsTypedErrors(t *testing.T) {
	nf := NotFound("Course not found")
	assert.Same(t, nf, Wrap(nf, "ignored"))
	assert.Nil(t, Wrap(nil, "nothing"))
}

package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad %s", "input")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", NotFound("lead not found"))))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorized("nope")))
	assert.Equal(t, KindUpstream, KindOf(errors.New("boom")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "bad input", MessageOf(Validation("bad %s", "input")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("driver exploded")))

	cause := errors.New("connection refused")
	err := Upstream("failed to save analysis", cause)
	assert.Equal(t, "failed to save analysis", MessageOf(err))
	assert.ErrorIs(t, err, cause)
}

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/course-grounding/internal/common"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 2, exitCode(common.NewAppError("X", "bad", common.ErrInvalidInput)))
	assert.Equal(t, 3, exitCode(common.NewAppError("X", "none", common.ErrNoActiveDocuments)))
	assert.Equal(t, 4, exitCode(common.NewAppError("X", "missing", common.ErrNotFound)))
	assert.Equal(t, 5, exitCode(&validationFailed{uncited: 2}))

	_, err := parseID("request_id", "not-a-uuid")
	assert.Equal(t, 2, exitCode(err))
}

package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"no documents", fmt.Errorf("phase a: %w", ErrNoActiveDocuments), codes.FailedPrecondition},
		{"invalid input", NewAppError("BAD_ID", "request id", ErrInvalidInput), codes.InvalidArgument},
		{"not found", WrapError(ErrNotFound, "load run"), codes.NotFound},
		{"uncited", fmt.Errorf("phase b: %w", ErrUncitedEvidence), codes.Aborted},
		{"status passthrough", NotFoundError("gone"), codes.NotFound},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GRPCCode(tt.err))
		})
	}
}

func TestParseUUID(t *testing.T) {
	_, err := ParseUUID("request_id", "nope")
	assert.True(t, IsInvalidInput(err))

	id, err := ParseUUID("request_id", " 7f1c1f8e-4b7a-4d55-9a55-1d2f3c4b5a69 ")
	assert.NoError(t, err)
	assert.Equal(t, "7f1c1f8e-4b7a-4d55-9a55-1d2f3c4b5a69", id.String())
}

package errorbank

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantKind   Kind
		wantStatus int
		wantGRPC   codes.Code
	}{
		{"bad request", BadRequest("bad"), KindBadRequest, http.StatusBadRequest, codes.InvalidArgument},
		{"unauthorized", Unauthorized("nope"), KindUnauthorized, http.StatusUnauthorized, codes.Unauthenticated},
		{"conflict", Conflict("dupe"), KindConflict, http.StatusConflict, codes.AlreadyExists},
		{"not found", NotFound("gone"), KindNotFound, http.StatusNotFound, codes.NotFound},
		{"invalid state", InvalidState("locked"), KindInvalidState, http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{"transient", Transient("retry"), KindTransient, http.StatusServiceUnavailable, codes.Unavailable},
		{"internal", Internal("boom"), KindInternal, http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.err.Kind())
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode())
			assert.Equal(t, tt.wantGRPC, tt.err.GRPCCode())
		})
	}
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Transient("storage failure", WithCause(cause))

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "disk full")
}

func TestFrom(t *testing.T) {
	appErr := NotFound("missing")
	require.Same(t, appErr, From(appErr))

	wrapped := From(errors.New("plain"))
	assert.Equal(t, KindInternal, wrapped.Kind())

	assert.Nil(t, From(nil))
}

func TestDetails(t *testing.T) {
	err := Conflict("dupe",
		WithDetail("table_id", int64(3)),
		WithDetails(map[string]any{"number": "12"}),
	)

	details := err.Details()
	assert.Equal(t, int64(3), details["table_id"])
	assert.Equal(t, "12", details["number"])
}

func TestEmptyMessageFallsBackToKind(t *testing.T) {
	err := New(KindConflict, "")
	assert.Equal(t, string(KindConflict), err.Message())
}

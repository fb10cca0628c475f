package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniwork/uniwork-backend-go/internal/domain/attendance"
	"github.com/uniwork/uniwork-backend-go/internal/domain/stats"
	"github.com/uniwork/uniwork-backend-go/internal/domain/user"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/validator"
)

func TestHandleError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validator.ValidationErrors{{Field: "currency", Message: "bad"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"invalid token", fmt.Errorf("claims: %w", user.ErrInvalidToken), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"manager required", user.ErrManagerAccessRequired, http.StatusForbidden, "FORBIDDEN"},
		{"employee not found", stats.ErrEmployeeNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"attendance not found", attendance.ErrAttendanceNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already clocked in", attendance.ErrAlreadyClockedIn, http.StatusConflict, "CONFLICT"},
		{"shift in progress", attendance.ErrShiftInProgress, http.StatusConflict, "CONFLICT"},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, c.err)

			assert.Equal(t, c.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, c.code, body.Error.Code)
		})
	}
}

func TestHandleError_ValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, validator.ValidationErrors{{Field: "currency", Message: "currency must be an ISO 4217 code"}})

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "currency must be an ISO 4217 code", body.Error.Details["currency"])
}

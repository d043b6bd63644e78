package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/roomchat/internal/model"
	"github.com/mcoot/roomchat/internal/services/auth"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrEmptyRoomName, http.StatusBadRequest, CodeInvalidRequest},
		{model.ErrRoomNotFound, http.StatusNotFound, CodeRoomNotFound},
		{fmt.Errorf("join: %w", model.ErrWrongPassword), http.StatusForbidden, CodeWrongPassword},
		{model.ErrNotInRoom, http.StatusForbidden, CodeNotInRoom},
		{model.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{model.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthorized},
		{auth.ErrUsernameExists, http.StatusConflict, CodeUsernameExists},
		{NewInvalidRequestError("bad"), http.StatusBadRequest, CodeInvalidRequest},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, apiErr := Describe(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, model.ErrEmptyMessage)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeInvalidRequest, body.Error.Code)
	assert.Contains(t, body.Error.Message, "message body is required")
}

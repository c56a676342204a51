package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub/core"
	"github.com/tutorhub/tutorhub/handler"
	"github.com/tutorhub/tutorhub/pkg/requestid"
)

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantLevel  string
	}{
		{"client error", core.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "WARN"},
		{"server error", errors.New("boom"), http.StatusInternalServerError, "internal_error", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&logs, nil))

			r := httptest.NewRequest(http.MethodPost, "/billing/transition", nil)
			r = r.WithContext(requestid.WithContext(r.Context(), "req-1"))
			w := httptest.NewRecorder()

			handler.NewErrorHandler(log)(handler.NewContext(w, r), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body handler.JSONResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "req-1", entry["request_id"])
			assert.Equal(t, "/billing/transition", entry["path"])
		})
	}
}

func TestNewErrorHandler_NilLogger(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.NewErrorHandler(nil)(handler.NewContext(w, r), core.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

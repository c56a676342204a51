package binder_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub/core"
	"github.com/tutorhub/tutorhub/pkg/binder"
)

type subscribeRequest struct {
	Tier            string  `json:"tier"`
	Interval        string  `json:"interval"`
	PaymentMethodID string  `json:"paymentMethodId"`
	Note            *string `json:"note,omitempty"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("binds and trims", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
			`{"tier":" lessons ","interval":"year","paymentMethodId":"pm_1","note":"  hi "}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var req subscribeRequest
		require.NoError(t, binder.JSON()(r, &req))
		assert.Equal(t, "lessons", req.Tier)
		assert.Equal(t, "year", req.Interval)
		assert.Equal(t, "pm_1", req.PaymentMethodID)
		require.NotNil(t, req.Note)
		assert.Equal(t, "hi", *req.Note)
	})

	t.Run("no body and no content type", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", nil)

		var req subscribeRequest
		assert.ErrorIs(t, binder.JSON()(r, &req), binder.ErrBinderNotApplicable)
	})

	tests := []struct {
		name        string
		contentType string
		body        string
		opts        []binder.JSONOption
		wantErr     error
		wantStatus  int
	}{
		{"missing content type", "", `{"tier":"lessons"}`, nil, binder.ErrMissingContentType, http.StatusUnsupportedMediaType},
		{"form content type", "application/x-www-form-urlencoded", "tier=lessons", nil, binder.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{"malformed", "application/json", `{"tier":`, nil, binder.ErrFailedToParseJSON, http.StatusBadRequest},
		{"empty body", "application/json", ``, nil, binder.ErrFailedToParseJSON, http.StatusBadRequest},
		{"unknown field", "application/json", `{"plan":"gold"}`, nil, binder.ErrFailedToParseJSON, http.StatusBadRequest},
		{"trailing data", "application/json", `{"tier":"lessons"}{"tier":"free"}`, nil, binder.ErrFailedToParseJSON, http.StatusBadRequest},
		{"wrong type", "application/json", `{"tier":1}`, nil, binder.ErrFailedToParseJSON, http.StatusBadRequest},
		{"too large", "application/json", `{"tier":"lessons"}`, []binder.JSONOption{binder.WithMaxSize(8)}, binder.ErrBodyTooLarge, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}

			var req subscribeRequest
			err := binder.JSON(tt.opts...)(r, &req)
			require.ErrorIs(t, err, tt.wantErr)

			var httpErr core.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.wantStatus, httpErr.Code)
		})
	}
}

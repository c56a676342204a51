package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/tutorhub/tutorhub/core"
)

// DefaultMaxJSONSize is the default maximum size of a JSON request body.
const DefaultMaxJSONSize = 1 << 20

// JSONOption configures the JSON binder.
type JSONOption func(*jsonConfig)

type jsonConfig struct {
	maxSize int64
}

// WithMaxSize limits the body size in bytes.
func WithMaxSize(n int64) JSONOption {
	return func(c *jsonConfig) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// JSON returns a binder decoding application/json bodies.
func JSON(opts ...JSONOption) func(r *http.Request, v any) error {
	cfg := jsonConfig{maxSize: DefaultMaxJSONSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			if r.ContentLength == 0 && isEmptyBody(r) {
				return ErrBinderNotApplicable
			}
			return errors.Join(core.ErrUnsupportedMediaType, ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return errors.Join(core.ErrUnsupportedMediaType,
				fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType))
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, cfg.maxSize+1))
		if err != nil {
			return errors.Join(core.ErrBadRequest, fmt.Errorf("%w: %v", ErrFailedToParseJSON, err))
		}
		if int64(len(body)) > cfg.maxSize {
			return errors.Join(core.ErrRequestEntityTooLarge, fmt.Errorf("%w: max %d bytes", ErrBodyTooLarge, cfg.maxSize))
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.Join(core.ErrBadRequest, fmt.Errorf("%w: empty body", ErrFailedToParseJSON))
			}
			return errors.Join(core.ErrBadRequest, fmt.Errorf("%w: %v", ErrFailedToParseJSON, err))
		}
		if dec.More() {
			return errors.Join(core.ErrBadRequest, fmt.Errorf("%w: unexpected data after JSON object", ErrFailedToParseJSON))
		}

		trimStrings(reflect.ValueOf(v))
		return nil
	}
}

// isEmptyBody reports whether the body has no bytes. It is only called for
// requests without a Content-Type, which the binder never decodes.
func isEmptyBody(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	var b [1]byte
	n, _ := r.Body.Read(b[:])
	return n == 0
}

func trimStrings(rv reflect.Value) {
	switch rv.Kind() {
	case reflect.String:
		if rv.CanSet() {
			rv.SetString(strings.TrimSpace(rv.String()))
		}
	case reflect.Struct:
		for i := range rv.NumField() {
			if f := rv.Field(i); f.CanSet() {
				trimStrings(f)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			trimStrings(rv.Index(i))
		}
	case reflect.Pointer, reflect.Interface:
		if !rv.IsNil() {
			trimStrings(rv.Elem())
		}
	}
}

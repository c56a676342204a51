package handler

import "net/http"

// Fail returns a Response that writes nothing and hands err to the error
// handler configured on Wrap, so handler failures are logged like binder
// failures.
func Fail(err error) Response {
	return failResponse{err: err}
}

type failResponse struct {
	err error
}

func (f failResponse) Render(http.ResponseWriter, *http.Request) error {
	if f.err == nil {
		return ErrNilResponse
	}
	return f.err
}

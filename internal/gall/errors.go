package gall

import "errors"

// ErrUnauthorized is returned for 401 and 403 responses. Callers generally
// let it propagate to the top-level event handler, which logs and continues.
var ErrUnauthorized = errors.New("gall: unauthorized")

// ErrBadRequest is returned for 400 responses.
var ErrBadRequest = errors.New("gall: bad request")

/*
Copyright (c) The seisbus Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package auth

import (
	"errors"
	"fmt"
)

// StatusCode is the ZAP reply status code (§4.6).
type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusBadRequest          StatusCode = 400
	StatusUnauthorized        StatusCode = 401
	StatusForbidden           StatusCode = 403
	StatusInternalServerError StatusCode = 500
)

func (s StatusCode) defaultText() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad request"
	case StatusUnauthorized:
		return "Unauthorized"
	case StatusForbidden:
		return "Forbidden"
	default:
		return "Internal server error"
	}
}

// ErrBadRequest, ErrUnauthorized and ErrForbidden are the sentinel policy
// outcomes an Authenticator may return from WhiteListed/BlackListed/
// Authenticate; any other error is treated as ErrInternalServerError.
var (
	ErrBadRequest          = errors.New("auth: bad request")
	ErrUnauthorized        = errors.New("auth: unauthorized")
	ErrForbidden           = errors.New("auth: forbidden")
	ErrInternalServerError = errors.New("auth: internal server error")
)

// HandshakeDenied carries the sub-code of a non-admitted handshake (§7).
// It is emitted only as a reply frame; the spec requires it never
// propagate to a handshake caller as a returned error.
type HandshakeDenied struct {
	Code StatusCode
	Text string
}

func (e *HandshakeDenied) Error() string {
	return fmt.Sprintf("auth: handshake denied: %d %s", e.Code, e.Text)
}

// classify maps a policy error to its wire status code and text.
func classify(err error) (StatusCode, string) {
	switch {
	case err == nil:
		return StatusOK, StatusOK.defaultText()
	case errors.Is(err, ErrBadRequest):
		return StatusBadRequest, err.Error()
	case errors.Is(err, ErrUnauthorized):
		return StatusUnauthorized, StatusUnauthorized.defaultText()
	case errors.Is(err, ErrForbidden):
		return StatusForbidden, StatusForbidden.defaultText()
	default:
		return StatusInternalServerError, StatusInternalServerError.defaultText()
	}
}

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

package transport

import "errors"

var (
	// ErrInvalidEndpoint is returned by Endpoint.Validate for an address
	// that does not begin with tcp://, udp://, or inproc:// (§6).
	ErrInvalidEndpoint = errors.New("transport: invalid endpoint")

	// ErrSendTimeout is returned by Rendezvous.Call when the request could
	// not be queued before the timeout elapsed.
	ErrSendTimeout = errors.New("transport: send timeout")

	// ErrReceiveTimeout is returned when Recv observed no message before the
	// receive timeout elapsed.
	ErrReceiveTimeout = errors.New("transport: receive timeout")

	// ErrClosed is returned by operations on a Topic or Rendezvous endpoint
	// that has already been closed.
	ErrClosed = errors.New("transport: endpoint closed")
)

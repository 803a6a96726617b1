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

package bus

import "errors"

var (
	// ErrInvalidConfig is raised by NewProxy for a malformed endpoint.
	ErrInvalidConfig = errors.New("bus: invalid config")
	// ErrAlreadyRunning is returned by Start when the proxy is not NotRunning.
	ErrAlreadyRunning = errors.New("bus: proxy already running")
	// ErrNotRunning is returned by Pause when the proxy is not Running and by
	// Resume when it is not Paused.
	ErrNotRunning = errors.New("bus: proxy not running")
)

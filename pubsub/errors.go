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

package pubsub

import "errors"

var (
	// ErrSendFailed is raised by Publisher.Send when the two-frame message
	// could not be handed off atomically (§4.5, §7).
	ErrSendFailed = errors.New("pubsub: send failed")
	// ErrInvalidConfig is raised by NewPublisher/NewSubscriber for a
	// malformed endpoint or non-negative-violating configuration.
	ErrInvalidConfig = errors.New("pubsub: invalid config")
)

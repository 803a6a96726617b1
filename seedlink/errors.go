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

package seedlink

import "errors"

var (
	// ErrInvalidConfig is raised by NewClient for a malformed configuration.
	ErrInvalidConfig = errors.New("seedlink: invalid config")
	// ErrMalformedRecord is raised by parseRecords for a record that fails
	// the fixed-header contract.
	ErrMalformedRecord = errors.New("seedlink: malformed record")
	// ErrUnhandledSampleType is raised when a record's data encoding is
	// recognized but not supported by the decompressor (§7).
	ErrUnhandledSampleType = errors.New("seedlink: unhandled sample type")
)

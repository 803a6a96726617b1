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

package packet

import "errors"

// ErrMalformedMessage is returned when a wire payload fails to decode into a
// Packet: a missing required field, a wrong CBOR major type, or a mismatched
// data type tag (§7 MalformedMessage).
var ErrMalformedMessage = errors.New("packet: malformed message")

// ErrInvalidConfig is returned for construction-time problems: non-positive
// sampling rate, an identity token of the wrong shape (§7 InvalidConfig).
var ErrInvalidConfig = errors.New("packet: invalid config")

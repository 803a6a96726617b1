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

package anomaly

import "errors"

// ErrInconsistentRate is raised by the duplicate detector when two packets
// sharing a channel name and sample count report sampling rates that do not
// agree after rounding (§4.2.3 step 3).
var ErrInconsistentRate = errors.New("anomaly: inconsistent sampling rate for duplicate candidate")

// ErrUnclassifiedRate is raised by the duplicate detector when a rounded
// sampling rate has no entry in the tolerance table (>= 1005 Hz, §4.2.3).
var ErrUnclassifiedRate = errors.New("anomaly: sampling rate has no duplicate tolerance classification")

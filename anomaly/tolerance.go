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

import "time"

// ToleranceRule binds an upper exclusive rate bound (Hz) to a duplicate-start
// time tolerance. The table is evaluated in order; the first rule whose
// MaxRateHz exceeds the rounded rate applies.
type ToleranceRule struct {
	MaxRateHz  int64
	Tolerance time.Duration
}

// DefaultToleranceTable is the §4.2.3 rate -> tolerance table. It is exposed
// so callers can override it, per the Open Question in spec.md §9: whether
// rejecting >= 1005 Hz outright is intentional is left to the operator to
// confirm by supplying their own table.
var DefaultToleranceTable = []ToleranceRule{
	{MaxRateHz: 105, Tolerance: 15_000 * time.Microsecond},
	{MaxRateHz: 255, Tolerance: 4_500 * time.Microsecond},
	{MaxRateHz: 505, Tolerance: 2_500 * time.Microsecond},
	{MaxRateHz: 1005, Tolerance: 1_500 * time.Microsecond},
}

// toleranceForRate returns the duplicate-start-time tolerance for a rounded
// rate, or ErrUnclassifiedRate if no rule in the table covers it.
func toleranceForRate(table []ToleranceRule, roundedRateHz int64) (time.Duration, error) {
	for _, rule := range table {
		if roundedRateHz < rule.MaxRateHz {
			return rule.Tolerance, nil
		}
	}
	return 0, ErrUnclassifiedRate
}

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

package config

import (
	"fmt"
	"strings"
)

// Selector is one SEEDLink stream selector: "NET [STA [CHAN [LOC [TYPE]]]]"
// (§6). An empty field means "all" in the SEEDLink protocol sense; Type
// defaults to "D" (data) when omitted.
type Selector struct {
	Network  string
	Station  string
	Channel  string
	Location string
	Type     string
}

func (s Selector) String() string {
	return fmt.Sprintf("%s %s %s %s %s", s.Network, s.Station, s.Channel, s.Location, s.Type)
}

// ParseSelectors splits raw on '|' or ',' into individual selector tokens,
// each whitespace-separated as NET [STA [CHAN [LOC [TYPE]]]] (§6).
func ParseSelectors(raw string) ([]Selector, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty selector list", ErrInvalidConfig)
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ',' })
	selectors := make([]Selector, 0, len(parts))
	for _, part := range parts {
		sel, err := parseOneSelector(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
	}
	return selectors, nil
}

func parseOneSelector(token string) (Selector, error) {
	if token == "" {
		return Selector{}, fmt.Errorf("%w: empty selector token", ErrInvalidConfig)
	}
	fields := strings.Fields(token)
	if len(fields) > 5 {
		return Selector{}, fmt.Errorf("%w: selector %q has more than 5 fields", ErrInvalidConfig, token)
	}
	sel := Selector{Type: "D"}
	if len(fields) > 0 {
		sel.Network = fields[0]
	}
	if len(fields) > 1 {
		sel.Station = fields[1]
	}
	if len(fields) > 2 {
		sel.Channel = fields[2]
	}
	if len(fields) > 3 {
		sel.Location = fields[3]
	}
	if len(fields) > 4 {
		sel.Type = strings.ToUpper(fields[4])
	}
	switch sel.Type {
	case "D", "A":
	default:
		return Selector{}, fmt.Errorf("%w: selector type must be D or A, got %q", ErrInvalidConfig, sel.Type)
	}
	return sel, nil
}

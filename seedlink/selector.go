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

import (
	"fmt"
	"strings"

	"github.com/uofuseismo/seisbus/config"
)

// stationCommand builds the "STATION station network" command for one
// selector. A blank station selects all stations on the server, matching
// the upstream client's "uni-station" fallback mode.
func stationCommand(s config.Selector) string {
	station := s.Station
	if station == "" {
		station = "*"
	}
	network := s.Network
	if network == "" {
		network = "*"
	}
	return fmt.Sprintf("STATION %s %s", station, network)
}

// selectCommand builds the "SELECT pattern" command for one selector,
// combining location, channel, and type into the SEEDLink selector pattern
// "LLCCC.T". A blank location/channel means "all" and is omitted from the
// pattern, matching the SEEDLink wire convention.
func selectCommand(s config.Selector) string {
	var b strings.Builder
	b.WriteString(s.Location)
	b.WriteString(s.Channel)
	if s.Type != "" {
		b.WriteByte('.')
		b.WriteString(s.Type)
	}
	pattern := b.String()
	if pattern == "" {
		return "SELECT"
	}
	return fmt.Sprintf("SELECT %s", pattern)
}

// groupByStation groups selectors sharing the same (network, station) pair,
// since each SEEDLink STATION command is followed by one or more SELECT
// commands scoped to that station before the next STATION command.
func groupByStation(selectors []config.Selector) [][]config.Selector {
	order := make([]string, 0, len(selectors))
	groups := make(map[string][]config.Selector)
	for _, s := range selectors {
		key := s.Network + "\x00" + s.Station
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}
	out := make([][]config.Selector, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}

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

// Mechanism is a ZAP security mechanism (§4.6).
type Mechanism string

const (
	MechanismNull  Mechanism = "NULL"
	MechanismPlain Mechanism = "PLAIN"
	MechanismCurve Mechanism = "CURVE"
)

// Options is a socket's frozen ZAP configuration, installed before
// bind/connect (§4.6: "the set is frozen per socket; changing mechanism
// requires a new socket").
type Options struct {
	Mechanism    Mechanism
	Domain       string
	ServerFlag   bool
	ServerPublic [32]byte
	ClientPublic [32]byte
	ClientSecret [32]byte
}

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

// Grasslands admits everyone unconditionally: no address list, no
// credential check. It is the default policy for development deployments.
type Grasslands struct{}

func (Grasslands) WhiteListed(string) (bool, error) { return true, nil }
func (Grasslands) BlackListed(string) (bool, error) { return false, nil }
func (Grasslands) Authenticate(Credential) error    { return nil }

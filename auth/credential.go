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

// Credential is the sum type over the two mechanism-specific credentials an
// Authenticator is asked to validate (§4.6).
type Credential interface {
	isCredential()
}

// UserNameAndPassword is the PLAIN mechanism credential.
type UserNameAndPassword struct {
	UserName string
	Password string
}

func (UserNameAndPassword) isCredential() {}

// KeyPair is the CURVE mechanism credential: only the client's public key is
// presented during the handshake.
type KeyPair struct {
	PublicKey [32]byte
}

func (KeyPair) isCredential() {}

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

package signal

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenCancelledBySIGINT(t *testing.T) {
	token, stop := NewToken()
	defer stop()

	assert.False(t, token.Interrupted())

	require := syscall.Kill(syscall.Getpid(), syscall.SIGINT)
	assert.NoError(t, require)

	select {
	case <-token.Done():
	case <-time.After(time.Second):
		t.Fatal("token was not cancelled within one second of SIGINT")
	}
	assert.True(t, token.Interrupted())
}

func TestStopReleasesHandlers(t *testing.T) {
	_, stop := NewToken()
	stop()
}

// Copyright 2025 BINARY Members
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cicada

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionVisibility(t *testing.T) {
	v := newVersion(100, []byte{1})

	// pending versions are invisible
	assert.False(t, v.IsVisibleTo(150))

	v.commit()
	assert.True(t, v.IsVisibleTo(150))
	assert.True(t, v.IsVisibleTo(100))
	assert.False(t, v.IsVisibleTo(99))
}

func TestVersionAbort(t *testing.T) {
	v := newVersion(100, []byte{1})
	v.abort()

	assert.False(t, v.IsVisibleTo(150))
	assert.False(t, v.waitPending())
}

func TestWaitPending(t *testing.T) {
	committed := newVersion(100, []byte{1})
	committed.commit()
	assert.True(t, committed.waitPending())

	// a writer that never concludes runs the spin out
	stuck := newVersion(100, []byte{1})
	assert.False(t, stuck.waitPending())
}

func TestUpdateRTS(t *testing.T) {
	v := newVersion(100, []byte{1})

	v.updateRTS(10)
	assert.Equal(t, uint64(10), v.RTS())

	// rts only grows
	v.updateRTS(5)
	assert.Equal(t, uint64(10), v.RTS())

	v.updateRTS(20)
	assert.Equal(t, uint64(20), v.RTS())
}

func TestVersionPayloadCompression(t *testing.T) {
	payload := bytes.Repeat([]byte("cicada"), 1024)
	v := newVersion(100, payload)

	assert.True(t, v.compressed)
	assert.Equal(t, len(payload), v.Size())
	assert.Equal(t, payload, v.Data())
}

func TestVersionIncompressiblePayload(t *testing.T) {
	payload := make([]byte, 1024)
	for i := range payload {
		payload[i] = byte(rand.Uint32())
	}
	v := newVersion(100, payload)

	assert.Equal(t, payload, v.Data())
	assert.Equal(t, len(payload), v.Size())
}

func TestVersionSmallPayloadStoredRaw(t *testing.T) {
	payload := []byte{1, 2, 3}
	v := newVersion(100, payload)

	assert.False(t, v.compressed)
	assert.Equal(t, payload, v.Data())
}

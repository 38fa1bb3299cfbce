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

package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompressRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("cicada"), 4096)

	enc := Compress(src)
	assert.Less(t, len(enc), len(src))

	dec, err := Decompress(enc)
	assert.NoError(t, err)
	assert.Equal(t, src, dec)
}

func TestDecompressGarbage(t *testing.T) {
	_, err := Decompress([]byte("not s2 data"))
	assert.Error(t, err)
}

func TestNextPowerOfTwo(t *testing.T) {
	assert.Equal(t, 1, NextPowerOfTwo(0))
	assert.Equal(t, 1, NextPowerOfTwo(1))
	assert.Equal(t, 2, NextPowerOfTwo(2))
	assert.Equal(t, 4, NextPowerOfTwo(3))
	assert.Equal(t, 1024, NextPowerOfTwo(1000))
	assert.Equal(t, 1024, NextPowerOfTwo(1024))
}

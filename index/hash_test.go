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

package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashInsertGet(t *testing.T) {
	h := NewHash(16)

	assert.NoError(t, h.Insert(StringKey("user:1"), 100, 10))

	recordID, ok, err := h.Get(StringKey("user:1"), 20)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), recordID)

	// never inserted: the bloom filter short-circuits the probe
	_, ok, err = h.Get(StringKey("user:2"), 20)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestHashGetInvisibleToOlderTimestamp(t *testing.T) {
	h := NewHash(16)

	assert.NoError(t, h.Insert(StringKey("user:1"), 100, 50))

	// the bucket was written past the reader's timestamp
	_, ok, err := h.Get(StringKey("user:1"), 40)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestHashOverwrite(t *testing.T) {
	h := NewHash(16)

	assert.NoError(t, h.Insert(StringKey("user:1"), 100, 10))
	assert.NoError(t, h.Insert(StringKey("user:1"), 111, 11))

	recordID, ok, err := h.Get(StringKey("user:1"), 20)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(111), recordID)

	// the bucket node tracks one record per live key
	node := h.bucket(StringKey("user:1")).meta
	assert.Equal(t, []uint64{111}, node.Records())
}

func TestHashRemove(t *testing.T) {
	h := NewHash(16)

	assert.NoError(t, h.Insert(StringKey("user:1"), 100, 10))
	assert.NoError(t, h.Remove(StringKey("user:1"), 11))

	_, ok, err := h.Get(StringKey("user:1"), 20)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, h.Remove(StringKey("user:1"), 12), ErrKeyNotFound)
}

func TestHashRangeScanUnsupported(t *testing.T) {
	h := NewHash(16)

	_, err := h.RangeScan(IntKey(1), IntKey(2), 10)
	assert.ErrorIs(t, err, ErrRangeScanUnsupported)
}

func TestHashValidationNodes(t *testing.T) {
	h := NewHash(16)

	point := h.ValidationNodes(StringKey("a"), StringKey("a"))
	assert.Len(t, point, 1)

	all := h.ValidationNodes(StringKey("a"), StringKey("z"))
	assert.Len(t, all, len(h.buckets))
}

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

func TestKeyEncoding(t *testing.T) {
	assert.Negative(t, IntKey(-5).Compare(IntKey(3)))
	assert.Negative(t, IntKey(3).Compare(IntKey(40)))
	assert.Zero(t, IntKey(7).Compare(IntKey(7)))
	assert.Positive(t, IntKey(7).Compare(IntKey(-7)))

	assert.Negative(t, StringKey("a").Compare(StringKey("b")))
	assert.True(t, BytesKey([]byte{1, 2}).Equal(BytesKey([]byte{1, 2})))
}

func TestBTreeInsertGet(t *testing.T) {
	bt := NewBTree()

	assert.NoError(t, bt.Insert(IntKey(1), 100, 10))
	assert.NoError(t, bt.Insert(IntKey(2), 200, 11))

	recordID, ok, err := bt.Get(IntKey(1), 20)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), recordID)

	_, ok, err = bt.Get(IntKey(3), 20)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestBTreeOverwrite(t *testing.T) {
	bt := NewBTree()

	assert.NoError(t, bt.Insert(IntKey(1), 100, 10))
	assert.NoError(t, bt.Insert(IntKey(1), 111, 11))

	recordID, ok, err := bt.Get(IntKey(1), 20)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(111), recordID)
}

func TestBTreeSplits(t *testing.T) {
	bt := NewBTree()

	const n = 100
	for i := range n {
		assert.NoError(t, bt.Insert(IntKey(int64(i)), uint64(i), uint64(i+1)))
	}
	assert.False(t, bt.root.leaf)

	for i := range n {
		recordID, ok, err := bt.Get(IntKey(int64(i)), 1000)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, uint64(i), recordID)
	}
}

func TestBTreeRemove(t *testing.T) {
	bt := NewBTree()

	assert.NoError(t, bt.Insert(IntKey(1), 100, 10))
	assert.NoError(t, bt.Remove(IntKey(1), 11))

	_, ok, err := bt.Get(IntKey(1), 20)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, bt.Remove(IntKey(1), 12), ErrKeyNotFound)
}

func TestBTreeRangeScan(t *testing.T) {
	bt := NewBTree()

	for i := range 10 {
		assert.NoError(t, bt.Insert(IntKey(int64(i)), uint64(i*10), 1))
	}

	result, err := bt.RangeScan(IntKey(3), IntKey(7), 100)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{30, 40, 50, 60, 70}, result)

	// empty range
	result, err = bt.RangeScan(IntKey(100), IntKey(200), 100)
	assert.NoError(t, err)
	assert.Empty(t, result)
}

func TestBTreeRangeScanAcrossSplits(t *testing.T) {
	bt := NewBTree()

	const n = 50
	for i := range n {
		assert.NoError(t, bt.Insert(IntKey(int64(i)), uint64(i), 1))
	}

	result, err := bt.RangeScan(IntKey(0), IntKey(n-1), 100)
	assert.NoError(t, err)
	assert.Len(t, result, n)
	for i := range n {
		assert.Equal(t, uint64(i), result[i])
	}
}

func TestBTreeValidationNodes(t *testing.T) {
	bt := NewBTree()

	assert.NoError(t, bt.Insert(IntKey(1), 100, 42))
	nodes := bt.ValidationNodes(IntKey(0), IntKey(10))
	assert.NotEmpty(t, nodes)
	assert.Equal(t, uint64(42), nodes[0].WTS())

	bt.UpdateTimestamps(nodes, 50)
	for _, node := range nodes {
		assert.Equal(t, uint64(50), node.RTS())
	}
}

func TestNodeUpdateRTSMonotonic(t *testing.T) {
	node := NewNode()

	node.UpdateRTS(10)
	assert.Equal(t, uint64(10), node.RTS())
	node.UpdateRTS(5)
	assert.Equal(t, uint64(10), node.RTS())
}

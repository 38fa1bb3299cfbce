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
	"slices"
	"sync"
)

var _ Index = (*BTree)(nil)

const (
	_minDegree = 4
	_maxKeys   = 2*_minDegree - 1
)

// btreeNode keeps record ids in the leaves; internal nodes hold separator
// keys only. Every node carries its multi-version metadata for the
// validation contract.
type btreeNode struct {
	meta     *Node
	keys     []Key
	children []*btreeNode
	leaf     bool
}

func newBTreeNode(leaf bool) *btreeNode {
	return &btreeNode{
		meta: NewNode(),
		leaf: leaf,
	}
}

// BTree is an ordered index. The tree structure is guarded by a single
// readers-writer lock; node timestamps are atomics readable without it.
type BTree struct {
	mu   sync.RWMutex
	root *btreeNode
}

func NewBTree() *BTree {
	return &BTree{
		root: newBTreeNode(true),
	}
}

func (t *BTree) Insert(key Key, recordID uint64, ts uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.root.keys) == _maxKeys {
		root := newBTreeNode(false)
		root.children = append(root.children, t.root)
		root.splitChild(0, ts)
		t.root = root
	}
	t.root.insertNonFull(key, recordID, ts)
	return nil
}

func (t *BTree) Remove(key Key, ts uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	leaf := t.root.descend(key)
	i, ok := slices.BinarySearchFunc(leaf.keys, key, Key.Compare)
	if !ok {
		return ErrKeyNotFound
	}
	leaf.keys = slices.Delete(leaf.keys, i, i+1)
	leaf.meta.removeRecordAt(i)
	leaf.meta.setWTS(ts)
	return nil
}

func (t *BTree) Get(key Key, _ uint64) (uint64, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf := t.root.descend(key)
	i, ok := slices.BinarySearchFunc(leaf.keys, key, Key.Compare)
	if !ok {
		return 0, false, nil
	}
	return leaf.meta.recordAt(i), true, nil
}

func (t *BTree) RangeScan(start, end Key, _ uint64) ([]uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []uint64
	t.root.rangeScan(start, end, &result)
	return result, nil
}

func (t *BTree) ValidationNodes(start, end Key) []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var nodes []*Node
	t.root.collectNodes(start, end, &nodes)
	return nodes
}

func (t *BTree) UpdateTimestamps(nodes []*Node, ts uint64) {
	for _, node := range nodes {
		node.UpdateRTS(ts)
	}
}

// childIndex returns the child to descend into for key: the first
// separator greater than key decides.
func (n *btreeNode) childIndex(key Key) int {
	i, ok := slices.BinarySearchFunc(n.keys, key, Key.Compare)
	if ok {
		return i + 1
	}
	return i
}

func (n *btreeNode) descend(key Key) *btreeNode {
	curr := n
	for !curr.leaf {
		curr = curr.children[curr.childIndex(key)]
	}
	return curr
}

// splitChild splits the full child at i, lifting a separator into n.
// Leaves split into two halves with the separator copied from the right
// half's first key; internal nodes move the middle key up.
func (n *btreeNode) splitChild(i int, ts uint64) {
	child := n.children[i]
	right := newBTreeNode(child.leaf)
	mid := _minDegree - 1

	var sep Key
	if child.leaf {
		right.keys = slices.Clone(child.keys[mid:])
		child.keys = child.keys[:mid]
		right.meta.setRecords(child.meta.splitRecordsAt(mid))
		sep = right.keys[0]
	} else {
		sep = child.keys[mid]
		right.keys = slices.Clone(child.keys[mid+1:])
		right.children = slices.Clone(child.children[mid+1:])
		child.keys = child.keys[:mid]
		child.children = child.children[:mid+1]
	}

	n.keys = slices.Insert(n.keys, i, sep)
	n.children = slices.Insert(n.children, i+1, right)

	n.meta.setWTS(ts)
	child.meta.setWTS(ts)
	right.meta.setWTS(ts)
}

func (n *btreeNode) insertNonFull(key Key, recordID uint64, ts uint64) {
	if n.leaf {
		i, ok := slices.BinarySearchFunc(n.keys, key, Key.Compare)
		if ok {
			n.meta.setRecordAt(i, recordID)
		} else {
			n.keys = slices.Insert(n.keys, i, key)
			n.meta.insertRecordAt(i, recordID)
		}
		n.meta.setWTS(ts)
		return
	}

	i := n.childIndex(key)
	if len(n.children[i].keys) == _maxKeys {
		n.splitChild(i, ts)
		if key.Compare(n.keys[i]) >= 0 {
			i++
		}
	}
	n.children[i].insertNonFull(key, recordID, ts)
}

func (n *btreeNode) rangeScan(start, end Key, result *[]uint64) {
	if n.leaf {
		for i, key := range n.keys {
			if key.Compare(start) >= 0 && key.Compare(end) <= 0 {
				*result = append(*result, n.meta.recordAt(i))
			}
		}
		return
	}
	for i := n.childIndex(start); i < len(n.children); i++ {
		// children past the end key hold no qualifying keys
		if i > 0 && n.keys[i-1].Compare(end) > 0 {
			break
		}
		n.children[i].rangeScan(start, end, result)
	}
}

func (n *btreeNode) collectNodes(start, end Key, nodes *[]*Node) {
	*nodes = append(*nodes, n.meta)
	if n.leaf {
		return
	}
	for i := n.childIndex(start); i < len(n.children); i++ {
		if i > 0 && n.keys[i-1].Compare(end) > 0 {
			break
		}
		n.children[i].collectNodes(start, end, nodes)
	}
}

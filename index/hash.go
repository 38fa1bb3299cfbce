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
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/B1NARY-GR0UP/cicada/pkg/filter"
	"github.com/B1NARY-GR0UP/cicada/pkg/utils"
)

var _ Index = (*Hash)(nil)

const _filterP = 0.01

type hashBucket struct {
	mu      sync.RWMutex
	meta    *Node
	entries map[string]uint64
}

// Hash is a point-lookup index over a fixed power-of-two bucket array.
// Keys hash with murmur3; a bloom filter short-circuits lookups of keys
// never inserted. Ranged operations are unsupported.
type Hash struct {
	buckets []hashBucket
	mask    uint64

	filterMu sync.RWMutex
	filter   *filter.Filter
}

func NewHash(capacity int) *Hash {
	n := utils.NextPowerOfTwo(capacity)
	h := &Hash{
		buckets: make([]hashBucket, n),
		mask:    uint64(n - 1),
		filter:  filter.New(capacity, _filterP),
	}
	for i := range h.buckets {
		h.buckets[i].meta = NewNode()
		h.buckets[i].entries = make(map[string]uint64)
	}
	return h
}

func (h *Hash) bucket(key Key) *hashBucket {
	return &h.buckets[murmur3.Sum64(key)&h.mask]
}

func (h *Hash) Insert(key Key, recordID uint64, ts uint64) error {
	h.filterMu.Lock()
	h.filter.Add(key)
	h.filterMu.Unlock()

	b := h.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.entries[string(key)]; ok {
		b.meta.replaceRecord(old, recordID)
	} else {
		b.meta.addRecord(recordID)
	}
	b.entries[string(key)] = recordID
	b.meta.setWTS(ts)
	return nil
}

func (h *Hash) Remove(key Key, ts uint64) error {
	// the bloom filter keeps the stale bit; that only costs a probe
	b := h.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	recordID, ok := b.entries[string(key)]
	if !ok {
		return ErrKeyNotFound
	}
	delete(b.entries, string(key))
	b.meta.removeRecord(recordID)
	b.meta.setWTS(ts)
	return nil
}

func (h *Hash) Get(key Key, ts uint64) (uint64, bool, error) {
	h.filterMu.RLock()
	hit := h.filter.Contains(key)
	h.filterMu.RUnlock()
	if !hit {
		return 0, false, nil
	}

	b := h.bucket(key)
	b.mu.RLock()
	defer b.mu.RUnlock()

	// a bucket written past the reader's timestamp is not observable
	if b.meta.WTS() > ts {
		return 0, false, nil
	}
	recordID, ok := b.entries[string(key)]
	return recordID, ok, nil
}

func (h *Hash) RangeScan(_, _ Key, _ uint64) ([]uint64, error) {
	return nil, ErrRangeScanUnsupported
}

// ValidationNodes returns the single bucket node for a point access and
// every bucket node otherwise.
func (h *Hash) ValidationNodes(start, end Key) []*Node {
	if start.Equal(end) {
		return []*Node{h.bucket(start).meta}
	}
	nodes := make([]*Node, 0, len(h.buckets))
	for i := range h.buckets {
		nodes = append(nodes, h.buckets[i].meta)
	}
	return nodes
}

func (h *Hash) UpdateTimestamps(nodes []*Node, ts uint64) {
	for _, node := range nodes {
		node.UpdateRTS(ts)
	}
}

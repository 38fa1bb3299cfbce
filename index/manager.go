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
	"fmt"
	"sync"
)

type indexKey struct {
	tableID uint64
	name    string
}

type indexEntry struct {
	kind  Kind
	index Index
}

// Manager owns every index in the system, keyed by (table, name).
type Manager struct {
	mu      sync.RWMutex
	indexes map[indexKey]indexEntry

	// capacity hint applied to new hash indexes
	initialCapacity int
}

func NewManager(initialCapacity int) *Manager {
	return &Manager{
		indexes:         make(map[indexKey]indexEntry),
		initialCapacity: initialCapacity,
	}
}

func (m *Manager) Create(tableID uint64, name string, kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := indexKey{tableID: tableID, name: name}
	if _, ok := m.indexes[key]; ok {
		return fmt.Errorf("%w: %s for table %d", ErrIndexExists, name, tableID)
	}

	var idx Index
	switch kind {
	case KindBTree:
		idx = NewBTree()
	case KindHash:
		idx = NewHash(m.initialCapacity)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	m.indexes[key] = indexEntry{kind: kind, index: idx}
	return nil
}

func (m *Manager) Get(tableID uint64, name string) (Index, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.indexes[indexKey{tableID: tableID, name: name}]
	if !ok {
		return nil, fmt.Errorf("%w: table %d has no index %s", ErrTableNotFound, tableID, name)
	}
	return entry.index, nil
}

func (m *Manager) Drop(tableID uint64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := indexKey{tableID: tableID, name: name}
	if _, ok := m.indexes[key]; !ok {
		return fmt.Errorf("%w: table %d has no index %s", ErrTableNotFound, tableID, name)
	}
	delete(m.indexes, key)
	return nil
}

// ValidateAccess collects the validation nodes for a ranged access and
// checks none has been written or read past ts. The caller hands the
// returned nodes to its transaction for commit-time re-validation and the
// final rts update.
func (m *Manager) ValidateAccess(tableID uint64, name string, start, end Key, ts uint64) ([]*Node, error) {
	idx, err := m.Get(tableID, name)
	if err != nil {
		return nil, err
	}

	nodes := idx.ValidationNodes(start, end)
	for _, node := range nodes {
		if node.WTS() > ts || node.RTS() > ts {
			return nil, ErrValidationFailed
		}
	}
	return nodes, nil
}

// UpdateTimestamps raises the read timestamp of validated nodes after a
// successful commit.
func (m *Manager) UpdateTimestamps(nodes []*Node, ts uint64) {
	for _, node := range nodes {
		node.UpdateRTS(ts)
	}
}

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
	"github.com/B1NARY-GR0UP/cicada/index"
)

// Txn is a single optimistic transaction. It stamps itself from its
// worker's clock at begin, buffers writes as pending versions, and installs
// them only after validation at commit. Dropping a Txn without committing
// installs none of its writes; a record made with CreateRecord, however,
// enters the store at once and stays there.
//
// A Txn is not safe for concurrent use.
type Txn struct {
	timestamp uint64

	// observed versions keyed by record id, last read wins on re-reads
	readSet map[uint64]*Version
	// pending versions keyed by record id
	writeSet map[uint64]*Version
	// read-your-own-writes cache, shares the pending versions
	localWrites map[uint64]*Version

	// index nodes touched by ranged operations, validated at commit
	indexNodes []*index.Node

	clock      *Clock
	store      *recordStore
	contention *ContentionManager
	threadID   int
}

type TxnFunc func(*Txn) error

func newTxn(clock *Clock, store *recordStore, contention *ContentionManager, threadID int) *Txn {
	return &Txn{
		timestamp:   clock.GenerateWriteTimestamp(),
		readSet:     make(map[uint64]*Version),
		writeSet:    make(map[uint64]*Version),
		localWrites: make(map[uint64]*Version),
		clock:       clock,
		store:       store,
		contention:  contention,
		threadID:    threadID,
	}
}

func (t *Txn) Timestamp() uint64 {
	return t.timestamp
}

// Read returns the version of the record visible at the transaction's
// timestamp. A record written earlier in the same transaction is served
// from the local write cache.
func (t *Txn) Read(recordID uint64) (*Version, error) {
	if local, ok := t.localWrites[recordID]; ok {
		return local, nil
	}

	record, err := t.store.get(recordID)
	if err != nil {
		return nil, err
	}

	visible := record.FindVisibleVersion(t.timestamp)
	if visible == nil {
		return nil, ErrNoVisibleVersion
	}
	visible.updateRTS(t.timestamp)
	t.readSet[recordID] = visible
	return visible, nil
}

// Write buffers a pending version stamped with the transaction's
// timestamp. The global record is untouched until commit.
func (t *Txn) Write(recordID uint64, data []byte) error {
	if _, err := t.store.get(recordID); err != nil {
		return err
	}

	v := newVersion(t.timestamp, data)
	t.writeSet[recordID] = v
	t.localWrites[recordID] = v
	return nil
}

func (t *Txn) CreateRecord(recordID uint64) error {
	return t.store.create(recordID, t.timestamp)
}

// TrackIndexNodes records validation nodes returned by ranged index
// operations. Commit verifies each node's timestamps and raises its rts.
func (t *Txn) TrackIndexNodes(nodes ...*index.Node) {
	t.indexNodes = append(t.indexNodes, nodes...)
}

// Commit validates the read and write sets against the current store state
// and, on success, flips the pending versions to committed and installs
// them. Installation is designed to succeed once validation passed; a
// structural error there is terminal, not a conflict.
func (t *Txn) Commit() error {
	if err := t.validate(); err != nil {
		return err
	}

	for recordID, v := range t.writeSet {
		record, err := t.store.get(recordID)
		if err != nil {
			return err
		}
		v.commit()
		if err := record.InstallVersion(v); err != nil {
			return err
		}
	}

	for _, node := range t.indexNodes {
		node.UpdateRTS(t.timestamp)
	}

	t.clock.ResetBoost()
	return nil
}

// validate checks, under a shared lock on the store, that no write target
// has been passed by a future writer or reader, that every read still observes
// the version it recorded, and that no touched index node has moved past
// the transaction's timestamp.
func (t *Txn) validate() error {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	for recordID := range t.writeSet {
		record, ok := t.store.records[recordID]
		if !ok {
			return errRecordNotFound(recordID)
		}
		if visible := record.FindVisibleVersion(t.timestamp); visible != nil {
			// a version from the future, or one a future reader already
			// observed, makes this write unserializable at t.timestamp
			if visible.wts > t.timestamp || visible.RTS() > t.timestamp {
				return ErrConflict
			}
		}
	}

	for recordID, observed := range t.readSet {
		record, ok := t.store.records[recordID]
		if !ok {
			return errRecordNotFound(recordID)
		}
		visible := record.FindVisibleVersion(t.timestamp)
		if visible == nil {
			// the observed snapshot vanished entirely
			return ErrValidationFailed
		}
		if visible.wts != observed.wts {
			return ErrConflict
		}
	}

	for _, node := range t.indexNodes {
		if node.WTS() > t.timestamp || node.RTS() > t.timestamp {
			return ErrValidationFailed
		}
	}
	return nil
}

// prepareGCTracking resolves the write set into (record, wts) pairs for
// handoff to the garbage collector after a successful commit.
func (t *Txn) prepareGCTracking() []gcEntry {
	entries := make([]gcEntry, 0, len(t.writeSet))
	for recordID, v := range t.writeSet {
		record, err := t.store.get(recordID)
		if err != nil {
			continue
		}
		entries = append(entries, gcEntry{record: record, wts: v.wts})
	}
	return entries
}

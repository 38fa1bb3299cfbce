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
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/B1NARY-GR0UP/cicada/pkg/watermark"
)

const (
	_maxTxnAttempts = 10

	// counter bump applied to a retrying clock so the next attempt lands
	// past the conflicting writer
	_abortClockBoost = 100
)

// recordStore is the process-wide mapping from record id to record head.
// Everyday reads take the shared lock; structural mutations are rare and
// exclusive. Records are never deleted, GC compacts versions only.
type recordStore struct {
	mu      sync.RWMutex
	records map[uint64]*RecordHead
}

func newRecordStore() *recordStore {
	return &recordStore{
		records: make(map[uint64]*RecordHead),
	}
}

func (s *recordStore) get(recordID uint64) (*RecordHead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordID]
	if !ok {
		return nil, errRecordNotFound(recordID)
	}
	return record, nil
}

func (s *recordStore) create(recordID, creationTS uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[recordID]; ok {
		return errRecordExists(recordID)
	}
	s.records[recordID] = NewRecordHead(creationTS)
	return nil
}

// TxnManager owns the record store and runs the transactional retry loop.
// It also tracks the lifetime of every transaction through a timestamp
// frontier, which bounds garbage collection and lets Close drain to
// quiescence.
type TxnManager struct {
	clockManager *ClockManager
	contention   *ContentionManager
	store        *recordStore

	active    *watermark.Tracker
	highestTS atomic.Uint64
}

func NewTxnManager(clockManager *ClockManager, contention *ContentionManager) *TxnManager {
	return &TxnManager{
		clockManager: clockManager,
		contention:   contention,
		store:        newRecordStore(),
		active:       watermark.New(),
	}
}

// ActiveMark exposes the transaction-lifetime frontier; its DoneUntil is a
// safe lower bound on the timestamp of every live transaction.
func (m *TxnManager) ActiveMark() *watermark.Tracker {
	return m.active
}

// Begin stamps a new transaction from the thread's clock and records its
// read watermark.
func (m *TxnManager) Begin(threadID int) *Txn {
	clock := m.clockManager.GetClock(threadID)
	txn := newTxn(clock, m.store, m.contention, threadID)
	clock.GenerateReadTimestamp(m.clockManager.MinWriteTS())

	m.active.Begin(txn.timestamp)
	for {
		curr := m.highestTS.Load()
		if txn.timestamp <= curr || m.highestTS.CompareAndSwap(curr, txn.timestamp) {
			break
		}
	}
	return txn
}

func (m *TxnManager) finish(txn *Txn) {
	m.active.Done(txn.timestamp)
}

// CreateRecord inserts a fresh record head stamped with the current global
// minimum write timestamp.
func (m *TxnManager) CreateRecord(recordID uint64) error {
	return m.store.create(recordID, m.clockManager.MinWriteTS())
}

func (m *TxnManager) GetRecord(recordID uint64) (*RecordHead, error) {
	return m.store.get(recordID)
}

// ExecuteWithGC runs fn inside the canonical retry loop: conflicts back
// off and retry with a boosted clock, up to _maxTxnAttempts; successful
// commits are recorded with the contention manager and their write set is
// handed to the garbage collector.
func (m *TxnManager) ExecuteWithGC(threadID int, gc *GarbageCollector, fn TxnFunc) error {
	clock := m.clockManager.GetClock(threadID)

	for range _maxTxnAttempts {
		txn := m.Begin(threadID)

		if err := fn(txn); err != nil {
			m.finish(txn)
			if errors.Is(err, ErrConflict) {
				m.contention.Backoff()
				clock.ApplyBoost(_abortClockBoost)
				continue
			}
			return err
		}

		gcInfo := txn.prepareGCTracking()
		err := txn.Commit()
		m.finish(txn)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				m.contention.Backoff()
				clock.ApplyBoost(_abortClockBoost)
				continue
			}
			return err
		}

		m.contention.RecordCommit(threadID)
		if gc != nil {
			for _, entry := range gcInfo {
				gc.TrackVersion(entry.record, entry.wts)
			}
		}
		return nil
	}
	return ErrMaxRetriesExceeded
}

// Drain blocks until every transaction begun so far has finished.
func (m *TxnManager) Drain(ctx context.Context) error {
	return m.active.Wait(ctx, m.highestTS.Load())
}

func (m *TxnManager) Stop() {
	m.active.Stop()
}

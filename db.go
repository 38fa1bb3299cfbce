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
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/B1NARY-GR0UP/cicada/index"
	"github.com/B1NARY-GR0UP/cicada/pkg/logger"
)

// DB is an in-memory multi-version transactional storage engine in the
// Cicada design: serializable transactions over a keyed record space with
// optimistic validation, per-thread logical clocks, version-chain storage
// and multi-version garbage collection. The engine is volatile.
type DB struct {
	config Config
	logger logger.Logger
	state  atomic.Uint32

	clockManager *ClockManager
	contention   *ContentionManager
	txnManager   *TxnManager
	gc           *GarbageCollector
	indexManager *index.Manager

	wg     sync.WaitGroup
	closeC chan struct{}
}

type State uint32

const (
	_ State = iota
	StateInitialize
	StateOpened
	StateClosed
)

// New builds the engine and starts the background maintenance tasks:
// clock synchronization, watermark refresh, contention hill climbing and
// garbage collection, one goroutine each.
func New(config Config) (*DB, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	clockManager, err := NewClockManager(config.ThreadCount)
	if err != nil {
		return nil, err
	}
	contention := NewContentionManager(config.ThreadCount, uint64(config.BackoffStep/time.Microsecond))
	txnManager := NewTxnManager(clockManager, contention)

	db := &DB{
		config:       config,
		logger:       logger.GetLogger(),
		clockManager: clockManager,
		contention:   contention,
		txnManager:   txnManager,
		gc:           NewGarbageCollector(clockManager, txnManager.ActiveMark()),
		indexManager: index.NewManager(config.InitialIndexCapacity),
		closeC:       make(chan struct{}),
	}
	db.state.Store(uint32(StateInitialize))

	db.wg.Add(4)
	go db.runLoop(config.ClockSyncInterval, clockManager.Synchronize)
	go db.runLoop(config.ClockSyncInterval, clockManager.UpdateMinTimestamps)
	go db.runLoop(config.HillClimbInterval, contention.HillClimb)
	go db.runLoop(config.GCInterval, db.gc.CollectGarbage)

	db.state.Store(uint32(StateOpened))
	db.logger.Infof("cicada opened with %d worker clocks", config.ThreadCount)
	return db, nil
}

func (db *DB) State() State {
	return State(db.state.Load())
}

// Close stops the maintenance tasks and drains in-flight transactions.
func (db *DB) Close() {
	if !db.state.CompareAndSwap(uint32(StateOpened), uint32(StateClosed)) {
		return
	}

	close(db.closeC)
	db.wg.Wait()

	if err := db.txnManager.Drain(context.Background()); err != nil {
		db.logger.Errorf("failed to drain transactions: %v", err)
	}
	db.txnManager.Stop()
	db.logger.Infof("cicada closed")
}

// Execute runs fn as a transaction on the worker's clock, retrying
// conflicts with randomized backoff.
func (db *DB) Execute(threadID int, fn TxnFunc) error {
	if db.State() != StateOpened {
		return ErrClosedDB
	}
	if threadID < 0 || threadID >= db.config.ThreadCount {
		return fmt.Errorf("thread id %d out of range [0, %d)", threadID, db.config.ThreadCount)
	}
	return db.txnManager.ExecuteWithGC(threadID, db.gc, fn)
}

// CreateRecord registers a fresh record outside any transaction. Records
// are never deleted; GC compacts their versions only.
func (db *DB) CreateRecord(recordID uint64) error {
	if db.State() != StateOpened {
		return ErrClosedDB
	}
	return db.txnManager.CreateRecord(recordID)
}

func (db *DB) GetRecord(recordID uint64) (*RecordHead, error) {
	return db.txnManager.GetRecord(recordID)
}

func (db *DB) CreateIndex(tableID uint64, name string, kind index.Kind) error {
	return db.indexManager.Create(tableID, name, kind)
}

func (db *DB) DropIndex(tableID uint64, name string) error {
	return db.indexManager.Drop(tableID, name)
}

func (db *DB) Index(tableID uint64, name string) (index.Index, error) {
	return db.indexManager.Get(tableID, name)
}

func (db *DB) IndexManager() *index.Manager {
	return db.indexManager
}

func (db *DB) runLoop(interval time.Duration, task func()) {
	defer db.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-db.closeC:
			return
		case <-ticker.C:
			task()
		}
	}
}

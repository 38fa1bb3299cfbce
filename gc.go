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
	"sync"

	"github.com/B1NARY-GR0UP/cicada/pkg/logger"
	"github.com/B1NARY-GR0UP/cicada/pkg/watermark"
)

type gcEntry struct {
	record *RecordHead
	wts    uint64
}

// GarbageCollector reclaims obsolete versions. Committed write sets are
// queued as (record, wts) pairs; each pass reclaims below the min-read
// watermark, clamped by the active-transaction frontier so a live
// transaction's snapshot is never collected under it. Reclamation is best
// effort: entries that are too young or whose record is busy are retried
// on the next pass.
type GarbageCollector struct {
	mu    sync.Mutex
	queue []gcEntry

	clockManager *ClockManager
	frontier     *watermark.Tracker
	logger       logger.Logger
}

func NewGarbageCollector(clockManager *ClockManager, frontier *watermark.Tracker) *GarbageCollector {
	return &GarbageCollector{
		clockManager: clockManager,
		frontier:     frontier,
		logger:       logger.GetLogger(),
	}
}

// TrackVersion queues a freshly committed version for reclamation once the
// watermark passes it.
func (g *GarbageCollector) TrackVersion(record *RecordHead, wts uint64) {
	g.mu.Lock()
	g.queue = append(g.queue, gcEntry{record: record, wts: wts})
	g.mu.Unlock()
}

// Pending reports the queue length, for tests and diagnostics.
func (g *GarbageCollector) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// CollectGarbage runs one reclamation pass: the queue is swapped out,
// every mature entry whose record lock is free has its chain rebuilt with
// only versions at or above the watermark, and the rest are kept for the
// next pass. No version at or above the watermark is ever removed unless
// it is aborted.
func (g *GarbageCollector) CollectGarbage() {
	minRTS := g.clockManager.MinReadTS()
	if frontier := g.frontier.DoneUntil(); frontier+1 < minRTS {
		minRTS = frontier + 1
	}

	g.mu.Lock()
	queue := g.queue
	g.queue = nil
	g.mu.Unlock()

	var remaining []gcEntry
	var reclaimed int
	for _, entry := range queue {
		if entry.wts >= minRTS {
			remaining = append(remaining, entry)
			continue
		}
		if !entry.record.TryGCLock() {
			remaining = append(remaining, entry)
			continue
		}
		entry.record.UpdateMinWTS(minRTS)
		reclaimed += entry.record.reclaimBelow(minRTS)
		entry.record.gcUnlock()
	}

	if reclaimed > 0 {
		g.logger.Debugf("gc pass reclaimed %d versions below %d", reclaimed, minRTS)
	}
	if len(remaining) > 0 {
		g.mu.Lock()
		g.queue = append(remaining, g.queue...)
		g.mu.Unlock()
	}
}

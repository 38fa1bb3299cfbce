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
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/B1NARY-GR0UP/cicada/pkg/logger"
)

type threadStats struct {
	commitCount     atomic.Uint64
	lastCommitCount atomic.Uint64
}

// ContentionManager samples system throughput and hill-climbs the maximum
// randomized backoff applied to aborted transactions: step the backoff,
// watch the throughput gradient, keep direction if it helped, reverse if
// it hurt.
type ContentionManager struct {
	stats []threadStats

	// current backoff bound in microseconds
	maxBackoffTime atomic.Uint64

	lastThroughput   atomic.Uint64
	lastBackoff      atomic.Uint64
	positiveGradient atomic.Bool

	backoffStep uint64
	logger      logger.Logger
}

func NewContentionManager(threadCount int, backoffStep uint64) *ContentionManager {
	cm := &ContentionManager{
		stats:       make([]threadStats, threadCount),
		backoffStep: backoffStep,
		logger:      logger.GetLogger(),
	}
	cm.positiveGradient.Store(true)
	return cm
}

// RecordCommit counts a successful commit for the thread.
func (c *ContentionManager) RecordCommit(threadID int) {
	if threadID < 0 || threadID >= len(c.stats) {
		return
	}
	c.stats[threadID].commitCount.Add(1)
}

// calculateThroughput sums the per-thread commit deltas since the previous
// sample and advances the snapshots.
func (c *ContentionManager) calculateThroughput() uint64 {
	var total uint64
	for i := range c.stats {
		curr := c.stats[i].commitCount.Load()
		prev := c.stats[i].lastCommitCount.Load()
		total += curr - prev
		c.stats[i].lastCommitCount.Store(curr)
	}
	return total
}

// HillClimb performs one adjustment step. With no historical sample the
// backoff is left unchanged and only the snapshot is recorded.
func (c *ContentionManager) HillClimb() {
	throughput := c.calculateThroughput()
	currBackoff := c.maxBackoffTime.Load()
	lastThroughput := c.lastThroughput.Load()

	if lastThroughput > 0 {
		throughputDelta := int64(throughput) - int64(lastThroughput)
		backoffDelta := int64(currBackoff) - int64(c.lastBackoff.Load())

		positive := true
		if backoffDelta != 0 {
			positive = float64(throughputDelta)/float64(backoffDelta) >= 0
		}
		c.positiveGradient.Store(positive)

		var next uint64
		if positive {
			next = currBackoff + c.backoffStep
		} else if currBackoff > c.backoffStep {
			next = currBackoff - c.backoffStep
		}
		c.maxBackoffTime.Store(next)
		c.logger.Debugf("hill climb: throughput %d, backoff %dus -> %dus", throughput, currBackoff, next)
	}

	c.lastThroughput.Store(throughput)
	c.lastBackoff.Store(currBackoff)
}

// MaxBackoff returns the current backoff bound.
func (c *ContentionManager) MaxBackoff() time.Duration {
	return time.Duration(c.maxBackoffTime.Load()) * time.Microsecond
}

// Backoff sleeps a uniform random duration up to the current bound. This
// is the only blocking call in the retry path; with a zero bound it
// returns immediately.
func (c *ContentionManager) Backoff() {
	maxBackoff := c.maxBackoffTime.Load()
	if maxBackoff == 0 {
		return
	}
	time.Sleep(time.Duration(rand.Uint64N(maxBackoff+1)) * time.Microsecond)
}

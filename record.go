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
	"sync/atomic"
)

// payloads up to this size take the inline fast path
const _maxInlineSize = 216

// RecordHead is the container for one logical record: an inline slot for
// small hot payloads plus a newest-first overflow chain of older versions.
//
// Invariants:
//   - an occupied inline slot is at least as new as every chain entry
//   - the chain is ordered newest-first, strictly decreasing wts
//   - only one reclamation pass runs per record at a time
type RecordHead struct {
	inlineMu sync.RWMutex
	inline   *Version

	listMu sync.RWMutex
	list   *Version

	gcMu   sync.Mutex
	minWTS atomic.Uint64

	// records below this timestamp are invisible
	creationTimestamp uint64
}

func NewRecordHead(creationTS uint64) *RecordHead {
	r := &RecordHead{
		creationTimestamp: creationTS,
	}
	r.minWTS.Store(creationTS)
	return r
}

func (r *RecordHead) CreationTimestamp() uint64 {
	return r.creationTimestamp
}

// InstallVersion publishes v into the record: small payloads take the
// inline slot, displacing a no-newer occupant onto the chain; everything
// else goes to the chain at its timestamp position, and an oversized
// version at least as new as the inline occupant moves that occupant onto
// the chain too, leaving the slot empty. An older committed version is
// never lost from reachability.
func (r *RecordHead) InstallVersion(v *Version) error {
	if v == nil {
		return ErrVersionInstallationFailed
	}
	if v.wts < r.creationTimestamp {
		return ErrInvalidTimestamp
	}

	r.inlineMu.Lock()
	defer r.inlineMu.Unlock()

	if v.Size() <= _maxInlineSize {
		switch {
		case r.inline == nil:
			r.inline = v
			return nil
		case v.wts >= r.inline.wts:
			// displaced inline enters the chain before it leaves the
			// slot, so it stays reachable throughout
			r.pushChain(r.inline)
			r.inline = v
			return nil
		}
	} else if r.inline != nil && v.wts >= r.inline.wts {
		// the slot must not hide a newer chain entry from readers
		r.pushChain(r.inline)
		r.inline = nil
	}

	r.pushChain(v)
	return nil
}

// pushChain inserts v at its timestamp-sorted position so the newest-first
// invariant survives commits landing out of timestamp order.
func (r *RecordHead) pushChain(v *Version) {
	r.listMu.Lock()
	defer r.listMu.Unlock()

	if r.list == nil || v.wts >= r.list.wts {
		v.next = r.list
		r.list = v
		return
	}
	curr := r.list
	for curr.next != nil && curr.next.wts > v.wts {
		curr = curr.next
	}
	v.next = curr.next
	curr.next = v
}

// FindVisibleVersion returns the newest committed version with wts <= ts,
// checking the inline slot first and then walking the chain newest to
// oldest. A pending writer at or below ts is waited out with a bounded
// spin; if it does not conclude committed the search continues to older
// versions.
func (r *RecordHead) FindVisibleVersion(ts uint64) *Version {
	if ts < r.creationTimestamp {
		return nil
	}

	r.inlineMu.RLock()
	inline := r.inline
	r.inlineMu.RUnlock()
	if inline != nil && settled(inline, ts) {
		return inline
	}

	r.listMu.RLock()
	defer r.listMu.RUnlock()
	for v := r.list; v != nil; v = v.next {
		if settled(v, ts) {
			return v
		}
	}
	return nil
}

// settled reports whether v is a committed version a reader at ts may
// take, waiting out an in-flight writer first.
func settled(v *Version, ts uint64) bool {
	if v.wts > ts {
		return false
	}
	switch versionStatus(v.status.Load()) {
	case versionCommitted:
		return true
	case versionPending:
		return v.waitPending()
	default:
		return false
	}
}

// TryGCLock attempts the per-record reclamation lock without blocking.
func (r *RecordHead) TryGCLock() bool {
	return r.gcMu.TryLock()
}

func (r *RecordHead) gcUnlock() {
	r.gcMu.Unlock()
}

func (r *RecordHead) UpdateMinWTS(ts uint64) {
	r.minWTS.Store(ts)
}

func (r *RecordHead) MinWTS() uint64 {
	return r.minWTS.Load()
}

// reclaimBelow rebuilds the overflow chain keeping only versions at or
// above the watermark; aborted versions are dropped regardless. Dropped
// versions are marked deleted. The inline slot is left alone: by invariant
// it is the newest version, and removing it could orphan the record's only
// committed payload. Returns the number of versions reclaimed.
//
// Callers hold the GC lock.
func (r *RecordHead) reclaimBelow(watermark uint64) int {
	r.listMu.Lock()
	defer r.listMu.Unlock()

	var head, tail *Version
	var reclaimed int
	for v := r.list; v != nil; {
		next := v.next
		v.next = nil

		if v.wts >= watermark && versionStatus(v.status.Load()) != versionAborted {
			if tail == nil {
				head = v
			} else {
				tail.next = v
			}
			tail = v
		} else {
			v.status.Store(uint32(versionDeleted))
			reclaimed++
		}
		v = next
	}
	r.list = head
	return reclaimed
}

// chainLen reports the overflow chain length, for tests and diagnostics.
func (r *RecordHead) chainLen() int {
	r.listMu.RLock()
	defer r.listMu.RUnlock()

	var n int
	for v := r.list; v != nil; v = v.next {
		n++
	}
	return n
}

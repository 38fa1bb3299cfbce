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
	"runtime"
	"sync/atomic"

	"github.com/B1NARY-GR0UP/cicada/pkg/logger"
	"github.com/B1NARY-GR0UP/cicada/pkg/utils"
)

type versionStatus uint32

const (
	versionUnused versionStatus = iota
	versionPending
	versionCommitted
	versionAborted
	versionDeleted
)

// bounded spin so a silently aborted writer cannot starve readers
const _maxPendingWaits = 1000

// payloads too large for the inline slot are stored s2-compressed when the
// encoding actually shrinks them
const _compressThreshold = _maxInlineSize

// Version is a single write of a record. It is immutable after commit
// except for rts, which only grows, and status, which GC may flip to
// deleted once the version leaves the chain.
type Version struct {
	wts    uint64
	rts    atomic.Uint64
	status atomic.Uint32

	data       []byte
	rawLen     int
	compressed bool

	// owning link to the next older version, nil at the tail;
	// a Version never points forward
	next *Version
}

func newVersion(wts uint64, data []byte) *Version {
	v := &Version{
		wts:    wts,
		rawLen: len(data),
	}
	v.status.Store(uint32(versionPending))

	if len(data) > _compressThreshold {
		if enc := utils.Compress(data); len(enc) < len(data) {
			v.data = enc
			v.compressed = true
			return v
		}
	}
	v.data = data
	return v
}

func (v *Version) WTS() uint64 {
	return v.wts
}

func (v *Version) RTS() uint64 {
	return v.rts.Load()
}

// Data returns the payload, decoding the compressed representation of
// large chain-resident versions.
func (v *Version) Data() []byte {
	if !v.compressed {
		return v.data
	}
	data, err := utils.Decompress(v.data)
	if err != nil {
		logger.GetLogger().Panicf("failed to decode version payload at %d: %v", v.wts, err)
	}
	return data
}

func (v *Version) Size() int {
	return v.rawLen
}

// IsVisibleTo reports whether a reader at ts observes this version: the
// write timestamp must not exceed ts and the version must be committed.
func (v *Version) IsVisibleTo(ts uint64) bool {
	return v.wts <= ts && versionStatus(v.status.Load()) == versionCommitted
}

func (v *Version) commit() {
	v.status.Store(uint32(versionCommitted))
}

func (v *Version) abort() {
	v.status.Store(uint32(versionAborted))
}

// waitPending spins while the version is still pending, up to
// _maxPendingWaits yields, and reports whether it concluded committed.
// Readers that meet an in-flight writer at their timestamp use this to
// decide between taking the version and searching older ones.
func (v *Version) waitPending() bool {
	for range _maxPendingWaits {
		if versionStatus(v.status.Load()) != versionPending {
			break
		}
		runtime.Gosched()
	}
	return versionStatus(v.status.Load()) == versionCommitted
}

// updateRTS raises the read timestamp to ts if it is higher. rts only
// grows, so the loop has no ABA concern.
func (v *Version) updateRTS(ts uint64) {
	for {
		curr := v.rts.Load()
		if ts <= curr || v.rts.CompareAndSwap(curr, ts) {
			return
		}
	}
}

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

package filter

import (
	"math"

	"github.com/spaolacci/murmur3"
)

const _defaultP = 0.01

// Filter is a bloom filter over byte keys. Contains never returns a false
// negative, so a miss can skip the backing lookup entirely. Callers
// synchronize access.
type Filter struct {
	bits  []uint64
	m     uint32
	seeds []uint32
}

// New creates a Filter sized for n expected elements at false positive
// rate p.
// m = -(n * ln(p)) / (ln(2)^2)
// k = (m/n) * ln(2)
func New(n int, p float64) *Filter {
	if n <= 0 {
		n = 1
	}
	if p <= 0 || p >= 1 {
		p = _defaultP
	}

	m := uint32(math.Ceil(-float64(n) * math.Log(p) / math.Pow(math.Log(2), 2)))
	if m == 0 {
		m = 1
	}
	k := max(int(math.Round(float64(m)/float64(n)*math.Log(2))), 1)

	seeds := make([]uint32, k)
	for i := range seeds {
		seeds[i] = uint32(i)
	}

	return &Filter{
		bits:  make([]uint64, (m+63)/64),
		m:     m,
		seeds: seeds,
	}
}

// Add records a key.
func (f *Filter) Add(key []byte) {
	for _, seed := range f.seeds {
		idx := murmur3.Sum32WithSeed(key, seed) % f.m
		f.bits[idx/64] |= 1 << (idx % 64)
	}
}

// Contains reports whether the key may have been added.
func (f *Filter) Contains(key []byte) bool {
	for _, seed := range f.seeds {
		idx := murmur3.Sum32WithSeed(key, seed) % f.m
		if f.bits[idx/64]&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

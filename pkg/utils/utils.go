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

package utils

import (
	"math/bits"

	"github.com/klauspost/compress/s2"
)

// Compress returns the s2 block encoding of src.
func Compress(src []byte) []byte {
	return s2.Encode(nil, src)
}

// Decompress reverses Compress.
func Decompress(src []byte) ([]byte, error) {
	return s2.Decode(nil, src)
}

// NextPowerOfTwo rounds n up to a power of two, minimum 1.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

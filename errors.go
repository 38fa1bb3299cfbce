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
	"errors"
	"fmt"
)

var (
	// ErrConflict is the only transient error: the retry loop catches it,
	// backs off and re-enters. Everything else is surfaced to the caller.
	ErrConflict = errors.New("transaction conflict detected")

	ErrValidationFailed          = errors.New("transaction validation failed")
	ErrNoVisibleVersion          = errors.New("no visible version found for record")
	ErrRecordNotFound            = errors.New("record not found")
	ErrInvalidTimestamp          = errors.New("invalid timestamp")
	ErrVersionInstallationFailed = errors.New("version installation failed")
	ErrMaxRetriesExceeded        = errors.New("max retry attempts exceeded")

	ErrInvalidThreadID = errors.New("thread id must be less than 255")
	ErrClosedDB        = errors.New("db is closed")
)

func errRecordNotFound(recordID uint64) error {
	return fmt.Errorf("%w: %d", ErrRecordNotFound, recordID)
}

func errRecordExists(recordID uint64) error {
	return fmt.Errorf("record %d already exists", recordID)
}

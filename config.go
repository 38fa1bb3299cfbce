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
	"time"
)

type Config struct {
	// number of worker threads, each owning a clock; at most 255
	ThreadCount int

	// version reclamation period
	GCInterval time.Duration
	// pairwise clock synchronization and watermark refresh period
	ClockSyncInterval time.Duration
	// throughput sampling period of the contention manager
	HillClimbInterval time.Duration
	// backoff adjustment applied per hill climb step
	BackoffStep time.Duration

	// capacity hint for hash indexes
	InitialIndexCapacity int
}

var DefaultConfig = Config{
	ThreadCount:          min(runtime.NumCPU(), _maxThreadID+1),
	GCInterval:           10 * time.Microsecond,
	ClockSyncInterval:    100 * time.Microsecond,
	HillClimbInterval:    5 * time.Millisecond,
	BackoffStep:          5 * time.Microsecond,
	InitialIndexCapacity: 1024,
}

func (c *Config) validate() error {
	if c.ThreadCount <= 0 {
		c.ThreadCount = DefaultConfig.ThreadCount
	}
	if c.ThreadCount > _maxThreadID+1 {
		return ErrInvalidThreadID
	}
	if c.GCInterval <= 0 {
		c.GCInterval = DefaultConfig.GCInterval
	}
	if c.ClockSyncInterval <= 0 {
		c.ClockSyncInterval = DefaultConfig.ClockSyncInterval
	}
	if c.HillClimbInterval <= 0 {
		c.HillClimbInterval = DefaultConfig.HillClimbInterval
	}
	if c.BackoffStep <= 0 {
		c.BackoffStep = DefaultConfig.BackoffStep
	}
	if c.InitialIndexCapacity <= 0 {
		c.InitialIndexCapacity = DefaultConfig.InitialIndexCapacity
	}
	return nil
}

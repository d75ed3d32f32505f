// Copyright The Lowdown Authors
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

// Package fault decides, per request and per fault kind, whether a
// configured percentage chance fires.
package fault

import (
	"math/rand"
	"sync"
	"time"

	"github.com/criccomini/lowdown/internal/snapshot"
)

// Decider draws independent uniform [0,99] samples to decide whether a
// percentage-chance fault fires. A single Decider is shared across all
// concurrently handled requests, so its draws are synchronized.
type Decider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDecider returns a Decider seeded from the current time. Use
// NewDeciderFromSeed in tests for determinism.
func NewDecider() *Decider {
	return NewDeciderFromSeed(time.Now().UnixNano())
}

// NewDeciderFromSeed returns a Decider with a fixed seed, for
// reproducible tests.
func NewDeciderFromSeed(seed int64) *Decider {
	return &Decider{rng: rand.New(rand.NewSource(seed))}
}

// Roll reports whether a fault configured at percentage (0-100) fires on
// this draw. A percentage of 0 never fires; a percentage of 100 or more
// always fires. Each call is an independent draw.
func (d *Decider) Roll(percentage int) bool {
	if percentage <= 0 {
		return false
	}
	if percentage >= 100 {
		return true
	}

	d.mu.Lock()
	n := d.rng.Intn(100)
	d.mu.Unlock()

	return n < percentage
}

// Plan is the outcome of rolling every fault kind for one request, decided
// up front so the lifecycle engine executes a fixed plan rather than
// re-rolling at each state transition.
type Plan struct {
	DelayBefore bool
	DelayAfter  bool
	FailBefore  bool
	FailAfter   bool
	Duplicate   bool
}

// Decide rolls every independent fault percentage in snap and returns the
// resulting Plan.
func Decide(d *Decider, snap snapshot.Snapshot) Plan {
	return Plan{
		DelayBefore: d.Roll(snap.DelayBeforePercentage),
		DelayAfter:  d.Roll(snap.DelayAfterPercentage),
		FailBefore:  d.Roll(snap.FailBeforePercentage),
		FailAfter:   d.Roll(snap.FailAfterPercentage),
		Duplicate:   d.Roll(snap.DuplicatePercentage),
	}
}

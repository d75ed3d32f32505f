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

package fault

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/criccomini/lowdown/internal/snapshot"
)

func TestRollBoundaries(t *testing.T) {
	d := NewDeciderFromSeed(1)
	assert.False(t, d.Roll(0))
	assert.True(t, d.Roll(100))
	assert.True(t, d.Roll(101))
}

func TestRollIsConcurrencySafe(t *testing.T) {
	d := NewDeciderFromSeed(42)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Roll(50)
		}()
	}
	wg.Wait()
}

func TestDecideRollsEveryKind(t *testing.T) {
	d := NewDeciderFromSeed(7)
	snap := snapshot.Snapshot{
		DelayBeforePercentage: 100,
		DelayAfterPercentage:  0,
		FailBeforePercentage:  100,
		FailAfterPercentage:   0,
		DuplicatePercentage:   100,
	}

	plan := Decide(d, snap)
	assert.True(t, plan.DelayBefore)
	assert.False(t, plan.DelayAfter)
	assert.True(t, plan.FailBefore)
	assert.False(t, plan.FailAfter)
	assert.True(t, plan.Duplicate)
}

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

// Package configstore holds the process-wide, admin-mutable configuration
// state: the persistent Admin layer and the queue of one-off rules. It
// purposefully knows nothing about matching or request handling; callers
// supply a predicate so this package never imports settings' consumers,
// keeping the dependency graph acyclic.
package configstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/criccomini/lowdown/internal/settings"
)

// OneOffRule is a single-use override queued by an admin, consumed by at
// most one matching request.
type OneOffRule struct {
	ID        string
	Layer     settings.Layer
	CreatedAt time.Time
}

// Store is the process-wide configuration state. The zero value is not
// usable; construct with New.
type Store struct {
	mu      sync.RWMutex
	admin   settings.Layer
	oneOffs []OneOffRule
}

// New returns an empty Store: no admin overrides, no queued one-off rules.
func New() *Store {
	return &Store{admin: settings.Layer{}}
}

// ReadAdmin returns a copy of the current admin layer.
func (s *Store) ReadAdmin() settings.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin.Clone()
}

// MergeAdmin overlays update onto the current admin layer and stores the
// result, returning a copy of the new admin layer.
func (s *Store) MergeAdmin(update settings.Layer) (settings.Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := settings.Overlay(s.admin, update)
	if err != nil {
		return nil, err
	}
	s.admin = merged
	return s.admin.Clone(), nil
}

// ResetAdmin clears the admin layer back to empty (no overrides).
func (s *Store) ResetAdmin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = settings.Layer{}
}

// PushOneOff queues a new one-off rule and returns it, ID assigned.
func (s *Store) PushOneOff(layer settings.Layer) OneOffRule {
	rule := OneOffRule{
		ID:        uuid.NewString(),
		Layer:     layer.Clone(),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.oneOffs = append(s.oneOffs, rule)
	return rule
}

// ListOneOffs returns a snapshot of the currently queued one-off rules, in
// the order they will be considered for consumption.
func (s *Store) ListOneOffs() []OneOffRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]OneOffRule, len(s.oneOffs))
	copy(out, s.oneOffs)
	return out
}

// DeleteOneOff removes a queued one-off rule by ID without consuming it,
// reporting whether a rule with that ID was found.
func (s *Store) DeleteOneOff(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rule := range s.oneOffs {
		if rule.ID == id {
			s.oneOffs = append(s.oneOffs[:i], s.oneOffs[i+1:]...)
			return true
		}
	}
	return false
}

// TryConsumeOneOff scans the queued one-off rules in order and atomically
// removes and returns the first one for which match reports true. The scan
// and removal happen under a single write lock so two concurrent requests
// can never both consume the same rule. It reports false if none matched.
func (s *Store) TryConsumeOneOff(match func(candidate settings.Layer) bool) (OneOffRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rule := range s.oneOffs {
		if match(rule.Layer) {
			s.oneOffs = append(s.oneOffs[:i], s.oneOffs[i+1:]...)
			return rule, true
		}
	}
	return OneOffRule{}, false
}

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

package settings

import (
	"sort"

	"dario.cat/mergo"
	"github.com/pkg/errors"
)

// Layer is a partial (or, in the case of Defaults, total) assignment of
// values to recognized keys. Layers are composed right-biased: later layers
// win over earlier ones for any key both define.
type Layer map[Key]Value

// Clone returns a shallow copy of l. Value is immutable, so this is a
// full deep copy in practice.
func (l Layer) Clone() Layer {
	out := make(Layer, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Get returns the value of key in l and whether l defines it at all.
func (l Layer) Get(key Key) (Value, bool) {
	v, ok := l[key]
	return v, ok
}

// Set returns a copy of l with key set to value.
func (l Layer) Set(key Key, value Value) Layer {
	out := l.Clone()
	out[key] = value
	return out
}

// Overlay composes l (the base) with over (the override) and returns the
// result: every key over defines wins, every other key of l is preserved.
// This is the right-biased "layer ⊕ layer" operation used to stack
// Defaults, Env, Admin, Request and OneOff layers into a single Resolved
// layer.
func Overlay(l, over Layer) (Layer, error) {
	dst := l.Clone()
	if err := mergo.Merge(&dst, over, mergo.WithOverride); err != nil {
		return nil, errors.Wrap(err, "overlay settings layer")
	}
	return dst, nil
}

// Compose folds Overlay across layers in order, left to right, so the
// rightmost layer to define a key wins. An empty argument list returns an
// empty Layer.
func Compose(layers ...Layer) (Layer, error) {
	result := Layer{}
	for _, l := range layers {
		merged, err := Overlay(result, l)
		if err != nil {
			return nil, err
		}
		result = merged
	}
	return result, nil
}

// SortedKeys returns the keys l defines, sorted for stable output.
func (l Layer) SortedKeys() []Key {
	keys := make([]Key, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

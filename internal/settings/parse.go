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

import "strconv"

// setFromString sets key to val in l, applying the silent-drop rule: a
// KindInt key whose val does not parse as an integer is left unset rather
// than stored as garbage. Every other Kind is stored verbatim.
func (l Layer) setFromString(key Key, val string) {
	if KindOf(key) == KindInt {
		if _, err := strconv.Atoi(val); err != nil {
			return
		}
	}
	l[key] = Present(val)
}

// Int returns the integer value of key in l, defaulting to 0 if key is
// absent or its value does not parse (which should not happen for a layer
// built via setFromString, but callers dealing with a fully Resolved layer
// should not need to handle an error here).
func (l Layer) Int(key Key) int {
	v, ok := l.Get(key)
	if !ok || !v.IsPresent() {
		return 0
	}
	n, err := strconv.Atoi(v.String())
	if err != nil {
		return 0
	}
	return n
}

// Str returns the string value of key in l, defaulting to "" if absent.
func (l Layer) Str(key Key) string {
	v, ok := l.Get(key)
	if !ok {
		return ""
	}
	return v.String()
}

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

// Value is a tagged variant over an optional string. It exists because
// destination-url's absence is semantically distinct from an empty string:
// an empty string is a (weird but valid) destination, while Absent means
// "nothing has configured a destination yet".
type Value struct {
	text string
	set  bool
}

// Present wraps s as a known value.
func Present(s string) Value {
	return Value{text: s, set: true}
}

// Absent is the zero information value: nothing has been configured.
func Absent() Value {
	return Value{}
}

// IsPresent reports whether the value carries text.
func (v Value) IsPresent() bool {
	return v.set
}

// String returns the wrapped text, or "" if the value is Absent.
func (v Value) String() string {
	return v.text
}

// MarshalYAML renders Absent as nil and Present as the wrapped string, so
// a Layer marshaled as YAML shows destination-url's absence as a YAML null
// rather than an empty string.
func (v Value) MarshalYAML() (interface{}, error) {
	if !v.set {
		return nil, nil
	}
	return v.text, nil
}

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

// Package settings describes the recognized configuration keys for the
// proxy, their default values, and the header/env name conventions used to
// set them from the outside.
package settings

import "sort"

// Key identifies a single recognized setting.
type Key string

// Kind describes how a Key's value should be interpreted.
type Kind int

const (
	// KindString is any setting stored and compared verbatim.
	KindString Kind = iota
	// KindInt is a setting whose textual value must parse as an integer.
	KindInt
	// KindRegex is match-uri-regex: a pattern compiled lazily by the matcher.
	KindRegex
	// KindDestinationURL is destination-url, the only key whose absence is
	// meaningful and distinct from an empty string.
	KindDestinationURL
)

// The recognized setting keys. See SPEC_FULL.md §6 for the canonical list.
const (
	DelayAfterMs           Key = "delay-after-ms"
	DelayAfterPercentage   Key = "delay-after-percentage"
	DelayBeforeMs          Key = "delay-before-ms"
	DelayBeforePercentage  Key = "delay-before-percentage"
	DestinationURL         Key = "destination-url"
	DuplicatePercentage    Key = "duplicate-percentage"
	FailAfterCode          Key = "fail-after-code"
	FailAfterPercentage    Key = "fail-after-percentage"
	FailBeforeCode         Key = "fail-before-code"
	FailBeforePercentage   Key = "fail-before-percentage"
	MatchHeaderName        Key = "match-header-name"
	MatchHeaderValue       Key = "match-header-value"
	MatchHost              Key = "match-host"
	MatchMethod            Key = "match-method"
	MatchURI               Key = "match-uri"
	MatchURIRegex          Key = "match-uri-regex"
	MatchURIStartsWith     Key = "match-uri-starts-with"
)

// kinds maps every recognized key to its Kind.
var kinds = map[Key]Kind{
	DelayAfterMs:          KindInt,
	DelayAfterPercentage:  KindInt,
	DelayBeforeMs:         KindInt,
	DelayBeforePercentage: KindInt,
	DestinationURL:        KindDestinationURL,
	DuplicatePercentage:   KindInt,
	FailAfterCode:         KindInt,
	FailAfterPercentage:   KindInt,
	FailBeforeCode:        KindInt,
	FailBeforePercentage:  KindInt,
	MatchHeaderName:       KindString,
	MatchHeaderValue:      KindString,
	MatchHost:             KindString,
	MatchMethod:           KindString,
	MatchURI:              KindString,
	MatchURIRegex:         KindRegex,
	MatchURIStartsWith:    KindString,
}

// defaults holds the built-in value for every recognized key except
// destination-url, which has no default (it is absent until set).
var defaults = map[Key]string{
	DelayAfterMs:          "0",
	DelayAfterPercentage:  "0",
	DelayBeforeMs:         "0",
	DelayBeforePercentage: "0",
	DuplicatePercentage:   "0",
	FailAfterCode:         "502",
	FailAfterPercentage:   "0",
	FailBeforeCode:        "503",
	FailBeforePercentage:  "0",
	MatchHeaderName:       "*",
	MatchHeaderValue:      "*",
	MatchHost:             "*",
	MatchMethod:           "*",
	MatchURI:              "*",
	MatchURIRegex:         "*",
	MatchURIStartsWith:    "*",
}

// KindOf reports how values of key should be interpreted. Unrecognized keys
// report KindString; callers should check IsRecognized first.
func KindOf(key Key) Kind {
	if k, ok := kinds[key]; ok {
		return k
	}
	return KindString
}

// IsRecognized reports whether key is one of the fixed enumeration.
func IsRecognized(key Key) bool {
	_, ok := kinds[key]
	return ok
}

// AllKeys returns every recognized key in a stable, sorted order.
func AllKeys() []Key {
	keys := make([]Key, 0, len(kinds))
	for k := range kinds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Defaults returns the built-in Layer: every recognized key mapped to its
// default value, with destination-url explicitly mapped to Absent so the
// layer is total (every key is a map entry, per the snapshot-totality
// invariant) even though its value carries no information yet.
func Defaults() Layer {
	l := make(Layer, len(kinds))
	for _, k := range AllKeys() {
		if k == DestinationURL {
			l[k] = Absent()
			continue
		}
		l[k] = Present(defaults[k])
	}
	return l
}

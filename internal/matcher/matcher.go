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

// Package matcher evaluates a layer's match-* settings against an incoming
// request, deciding whether that layer (an admin override or a queued
// one-off rule) applies to it.
package matcher

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/criccomini/lowdown/internal/settings"
)

// Wildcard is the value meaning "match anything" for every match-* key.
const Wildcard = "*"

// Input is the subset of an incoming request the matcher inspects. Host is
// the resolved destination's host[:port] (per SPEC_FULL.md §4.4,
// match-host compares against the destination, not the inbound Host
// header); InputFromRequest seeds it from the request as a fallback for
// callers that have no destination yet, and snapshot.Resolve overwrites it
// once the destination is known.
type Input struct {
	Host   string
	Method string
	URI    string
	Header http.Header
}

// InputFromRequest extracts a matcher Input from a live HTTP request. URI
// is the request's path alone (no query string): every match-uri* key in
// SPEC_FULL.md §4.4 is specified as matching "the path".
func InputFromRequest(r *http.Request) Input {
	return Input{
		Host:   r.Host,
		Method: r.Method,
		URI:    r.URL.Path,
		Header: r.Header,
	}
}

// Evaluate reports whether every match-* predicate in layer is satisfied
// by in. A predicate whose configured value is Wildcard always passes. A
// layer with no match-* keys set at all (e.g. the Defaults layer, which
// sets them all to Wildcard) always passes.
//
// An unparsable match-uri-regex value is logged (if log is non-nil) and
// treated as never matching, rather than causing an error: a broken
// one-off rule should sit unused, not crash request handling.
func Evaluate(layer settings.Layer, in Input, log logrus.FieldLogger) bool {
	return matchHost(layer, in) &&
		matchMethod(layer, in) &&
		matchURI(layer, in) &&
		matchURIStartsWith(layer, in) &&
		matchURIRegex(layer, in, log) &&
		matchHeader(layer, in)
}

func matchHost(layer settings.Layer, in Input) bool {
	want := layer.Str(settings.MatchHost)
	return want == Wildcard || want == "" || strings.EqualFold(want, in.Host)
}

func matchMethod(layer settings.Layer, in Input) bool {
	want := layer.Str(settings.MatchMethod)
	return want == Wildcard || want == "" || strings.EqualFold(want, in.Method)
}

func matchURI(layer settings.Layer, in Input) bool {
	want := layer.Str(settings.MatchURI)
	return want == Wildcard || want == "" || want == in.URI
}

func matchURIStartsWith(layer settings.Layer, in Input) bool {
	want := layer.Str(settings.MatchURIStartsWith)
	if want == Wildcard || want == "" {
		return true
	}
	return len(in.URI) >= len(want) && in.URI[:len(want)] == want
}

func matchURIRegex(layer settings.Layer, in Input, log logrus.FieldLogger) bool {
	want := layer.Str(settings.MatchURIRegex)
	if want == Wildcard || want == "" {
		return true
	}

	// Anchored so the pattern must match the whole path, not a substring.
	re, err := regexp.Compile("^(?:" + want + ")$")
	if err != nil {
		if log != nil {
			log.WithError(err).WithField("pattern", want).Warn("ignoring layer with unparsable match-uri-regex")
		}
		return false
	}
	return re.MatchString(in.URI)
}

func matchHeader(layer settings.Layer, in Input) bool {
	name := layer.Str(settings.MatchHeaderName)
	want := layer.Str(settings.MatchHeaderValue)
	if name == Wildcard || name == "" || want == Wildcard {
		return true
	}

	values, ok := in.Header[http.CanonicalHeaderKey(name)]
	if !ok || len(values) == 0 {
		return false
	}

	if want == "" {
		return true
	}

	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

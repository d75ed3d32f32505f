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
	"net/http"
	"strings"
)

// HeaderPrefix is prepended to a Key's title-cased form to produce the
// request/response header name carrying that setting.
const HeaderPrefix = "X-Lowdown-"

// HeaderName returns the canonical header name for key, e.g.
// "delay-after-ms" -> "X-Lowdown-Delay-After-Ms".
func HeaderName(key Key) string {
	return http.CanonicalHeaderKey(HeaderPrefix + string(key))
}

// EnvName returns the canonical environment variable name for key, e.g.
// "delay-after-ms" -> "DELAY_AFTER_MS". Unlike the header mapping, setting
// env vars carry no package-specific prefix (per SPEC_FULL.md §6's
// `DESTINATION_URL=http://backend` example), so this sits alongside the
// prefixed infrastructure vars (PROXY_BIND, ADMIN_PORT, ...) parsed in
// cmd/lowdown.
func EnvName(key Key) string {
	return strings.ToUpper(strings.ReplaceAll(string(key), "-", "_"))
}

// KeyFromHeaderName reverses HeaderName: it returns the Key and whether
// name (any casing) was recognized as carrying a setting at all.
func KeyFromHeaderName(name string) (Key, bool) {
	canon := http.CanonicalHeaderKey(name)
	if !strings.HasPrefix(canon, HeaderPrefix) {
		return "", false
	}
	key := Key(strings.ToLower(strings.TrimPrefix(canon, HeaderPrefix)))
	return key, IsRecognized(key)
}

// FromHeader builds a Layer from every recognized X-Lowdown-* header
// present in h. Unrecognized headers, and settings with unparsable
// numeric values, are silently skipped.
func FromHeader(h http.Header) Layer {
	l := Layer{}
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		key, ok := KeyFromHeaderName(name)
		if !ok {
			continue
		}
		l.setFromString(key, values[0])
	}
	return l
}

// FromEnv builds a Layer from every recognized setting's bare environment
// variable (per EnvName) returned by lookup (typically os.LookupEnv).
// Settings with unparsable numeric values are silently skipped.
func FromEnv(lookup func(string) (string, bool)) Layer {
	l := Layer{}
	for _, key := range AllKeys() {
		val, ok := lookup(EnvName(key))
		if !ok {
			continue
		}
		l.setFromString(key, val)
	}
	return l
}

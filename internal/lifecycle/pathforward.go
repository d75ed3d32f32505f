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

package lifecycle

import (
	"net/http"
	"strings"

	"github.com/criccomini/lowdown/internal/settings"
)

// Path prefixes that trigger path-based destination extraction: the
// segment immediately following the prefix names the upstream host, and
// the remainder of the path (re-rooted at "/") is what actually reaches
// it.
const (
	forwardHTTPPrefix  = "/lowdown-forward-http/"
	forwardHTTPSPrefix = "/lowdown-forward-https/"
)

// extractPathDestination rewrites r in place when its path begins with
// one of the forward prefixes: r.URL.Path becomes the remainder (or "/"
// if there is none), and the equivalent destination-url header is set on
// r so the Request layer picks it up exactly as if the client had sent
// it directly. It reports whether a rewrite occurred.
func extractPathDestination(r *http.Request) bool {
	scheme, rest, ok := cutForwardPrefix(r.URL.Path)
	if !ok {
		return false
	}

	host, remainder, _ := strings.Cut(rest, "/")
	if host == "" {
		return false
	}

	path := "/" + remainder
	r.URL.Path = path
	r.URL.RawPath = ""
	r.Header.Set(settings.HeaderName(settings.DestinationURL), scheme+"://"+host)
	return true
}

func cutForwardPrefix(path string) (scheme, rest string, ok bool) {
	switch {
	case strings.HasPrefix(path, forwardHTTPSPrefix):
		return "https", strings.TrimPrefix(path, forwardHTTPSPrefix), true
	case strings.HasPrefix(path, forwardHTTPPrefix):
		return "http", strings.TrimPrefix(path, forwardHTTPPrefix), true
	default:
		return "", "", false
	}
}

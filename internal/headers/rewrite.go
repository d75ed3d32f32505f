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

// Package headers rewrites request and response headers crossing the
// proxy boundary: Host/Origin substitution, CORS reflection, and
// hop-by-hop header stripping.
package headers

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/criccomini/lowdown/internal/settings"
)

// hopByHop lists the headers that are meaningful only for a single
// transport hop and must never be forwarded across the proxy boundary,
// per RFC 7230 §6.1. Connection lists additional per-hop headers
// dynamically; those are handled separately in Strip.
var hopByHop = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Strip removes hop-by-hop headers from h in place, including any
// additional header named by a Connection header value.
func Strip(h http.Header) {
	if c := h.Get("Connection"); c != "" {
		for _, name := range strings.Split(c, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				h.Del(name)
			}
		}
	}

	for _, name := range hopByHop {
		h.Del(name)
	}
}

// StripLowdown removes every X-Lowdown-* control header from h in place,
// so a request's fault-injection directives never reach the upstream.
func StripLowdown(h http.Header) {
	for name := range h {
		if strings.HasPrefix(http.CanonicalHeaderKey(name), settings.HeaderPrefix) {
			h.Del(name)
		}
	}
}

// IsHopByHop reports whether name is a hop-by-hop header per RFC 7230, or
// is named by a Connection header token per httpguts.
func IsHopByHop(h http.Header, name string) bool {
	for _, hop := range hopByHop {
		if strings.EqualFold(hop, name) {
			return true
		}
	}
	return httpguts.HeaderValuesContainsToken(h["Connection"], name)
}

// RewriteHost sets req's Host (both req.Host and the Host header) to
// destination's host, so the upstream sees itself addressed rather than
// the original inbound Host.
func RewriteHost(req *http.Request, destination *url.URL) {
	req.Host = destination.Host
	req.Header.Set("Host", destination.Host)
}

// RewriteOrigin sets the outbound Origin header to destination's origin,
// matching the convention that a proxied request should appear to
// originate from the proxy's perspective of the upstream, not the
// original client's Origin.
func RewriteOrigin(req *http.Request, destination *url.URL) {
	if req.Header.Get("Origin") == "" {
		return
	}
	req.Header.Set("Origin", destination.Scheme+"://"+destination.Host)
}

// ReflectCORS replaces resp's Access-Control-Allow-Origin with the
// client's own Origin header value, but only when both the client sent an
// Origin AND the backend actually set Access-Control-Allow-Origin on this
// response — per SPEC_FULL.md §4.7, a response the backend never marked as
// CORS-enabled is passed through untouched.
func ReflectCORS(resp http.Header, clientOrigin string) {
	if clientOrigin == "" || resp.Get("Access-Control-Allow-Origin") == "" {
		return
	}
	resp.Set("Access-Control-Allow-Origin", clientOrigin)
}

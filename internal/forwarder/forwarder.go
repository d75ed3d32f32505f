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

// Package forwarder dispatches an outbound request to a destination and
// returns its response, independent of the fault-injection and lifecycle
// concerns layered on top of it.
package forwarder

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Forwarder dispatches req (already rewritten for its destination) and
// returns the upstream response or a transport error.
type Forwarder interface {
	Forward(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPForwarder is a Forwarder backed by net/http.
type HTTPForwarder struct {
	Client *http.Client
}

// NewHTTPForwarder returns a HTTPForwarder with a client tuned for
// proxying: no redirect following (the caller decides what to do with a
// 3xx, same as any other upstream response) and a dial/handshake timeout
// that does not also bound the time a slow, intentionally faulted
// response may take to arrive.
func NewHTTPForwarder() *HTTPForwarder {
	return &HTTPForwarder{
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Forward dispatches req, already built by Rewrite, under ctx and returns
// the upstream response.
func (f *HTTPForwarder) Forward(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f.Client.Do(req.WithContext(ctx))
}

// Rewrite clones src into a new request targeting destination, copying
// method, header and body, and joining destination's scheme/host[/path]
// with src's own path and query string rather than discarding them: when
// destination is a bare scheme://host (as the host synthesized by
// path-based forwarding always is), the inbound request's path and query
// are what reach the upstream unchanged. The caller is responsible for any header rewriting
// (Host/Origin/hop-by-hop) before or after calling Rewrite.
func Rewrite(src *http.Request, destination string) (*http.Request, error) {
	dest, err := url.Parse(destination)
	if err != nil {
		return nil, err
	}

	outURL := *dest
	outURL.Path = singleJoiningSlash(dest.Path, src.URL.Path)
	outURL.RawPath = singleJoiningSlash(dest.EscapedPath(), src.URL.EscapedPath())
	outURL.RawQuery = src.URL.RawQuery

	var body io.ReadCloser
	if src.Body != nil {
		body = src.Body
	}

	out, err := http.NewRequest(src.Method, outURL.String(), body)
	if err != nil {
		return nil, err
	}
	out.Header = src.Header.Clone()
	out.ContentLength = src.ContentLength
	return out, nil
}

// singleJoiningSlash joins a base and a relative path with exactly one
// slash between them, the same convention net/http/httputil.ReverseProxy
// uses to combine a target URL's path with the incoming request's path.
func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}

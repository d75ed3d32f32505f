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

package headers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripRemovesStandardHopByHopHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "Keep-Alive, X-Custom-Hop")
	h.Set("Keep-Alive", "timeout=5")
	h.Set("X-Custom-Hop", "1")
	h.Set("Content-Type", "application/json")

	Strip(h)

	assert.Empty(t, h.Get("Connection"))
	assert.Empty(t, h.Get("Keep-Alive"))
	assert.Empty(t, h.Get("X-Custom-Hop"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
}

func TestStripLowdownRemovesAllControlHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("X-Lowdown-Fail-After-Percentage", "100")
	h.Set("X-Lowdown-Destination-Url", "http://upstream.internal")
	h.Set("Content-Type", "application/json")

	StripLowdown(h)

	assert.Empty(t, h.Get("X-Lowdown-Fail-After-Percentage"))
	assert.Empty(t, h.Get("X-Lowdown-Destination-Url"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
}

func TestRewriteHostSetsHostAndHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://inbound.local/widgets", nil)
	dest, err := url.Parse("http://upstream.internal:8080")
	require.NoError(t, err)

	RewriteHost(req, dest)

	assert.Equal(t, "upstream.internal:8080", req.Host)
	assert.Equal(t, "upstream.internal:8080", req.Header.Get("Host"))
}

func TestRewriteOriginOnlyWhenPresent(t *testing.T) {
	dest, err := url.Parse("http://upstream.internal")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://inbound.local/widgets", nil)
	RewriteOrigin(req, dest)
	assert.Empty(t, req.Header.Get("Origin"))

	req.Header.Set("Origin", "https://client.example.com")
	RewriteOrigin(req, dest)
	assert.Equal(t, "http://upstream.internal", req.Header.Get("Origin"))
}

func TestReflectCORSUsesClientOrigin(t *testing.T) {
	resp := http.Header{}
	resp.Set("Access-Control-Allow-Origin", "*")

	ReflectCORS(resp, "https://client.example.com")
	assert.Equal(t, "https://client.example.com", resp.Get("Access-Control-Allow-Origin"))
}

func TestReflectCORSLeavesUntouchedWithoutClientOrigin(t *testing.T) {
	resp := http.Header{}
	resp.Set("Access-Control-Allow-Origin", "*")

	ReflectCORS(resp, "")
	assert.Equal(t, "*", resp.Get("Access-Control-Allow-Origin"))
}

func TestReflectCORSLeavesUntouchedWithoutBackendHeader(t *testing.T) {
	resp := http.Header{}

	ReflectCORS(resp, "https://client.example.com")
	assert.Empty(t, resp.Get("Access-Control-Allow-Origin"))
}

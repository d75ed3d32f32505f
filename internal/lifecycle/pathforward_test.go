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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/criccomini/lowdown/internal/settings"
)

func TestExtractPathDestinationHTTPWithPath(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/lowdown-forward-http/api.example.com/widgets/1", nil)

	ok := extractPathDestination(r)

	assert.True(t, ok)
	assert.Equal(t, "/widgets/1", r.URL.Path)
	assert.Equal(t, "http://api.example.com", r.Header.Get(settings.HeaderName(settings.DestinationURL)))
}

func TestExtractPathDestinationHTTPSHostOnly(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/lowdown-forward-https/api.example.com", nil)

	ok := extractPathDestination(r)

	assert.True(t, ok)
	assert.Equal(t, "/", r.URL.Path)
	assert.Equal(t, "https://api.example.com", r.Header.Get(settings.HeaderName(settings.DestinationURL)))
}

func TestExtractPathDestinationNoPrefixLeavesRequestUntouched(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/widgets/1", nil)

	ok := extractPathDestination(r)

	assert.False(t, ok)
	assert.Equal(t, "/widgets/1", r.URL.Path)
	assert.Empty(t, r.Header.Get(settings.HeaderName(settings.DestinationURL)))
}

func TestExtractPathDestinationEmptyHostIsNotRewritten(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/lowdown-forward-http/", nil)

	ok := extractPathDestination(r)

	assert.False(t, ok)
	assert.Equal(t, "/lowdown-forward-http/", r.URL.Path)
}

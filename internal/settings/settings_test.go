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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsIsTotal(t *testing.T) {
	d := Defaults()
	for _, k := range AllKeys() {
		v, ok := d.Get(k)
		require.Truef(t, ok, "default layer missing key %s", k)
		if k == DestinationURL {
			assert.False(t, v.IsPresent())
		} else {
			assert.True(t, v.IsPresent())
		}
	}
}

func TestDefaultsIsDeterministic(t *testing.T) {
	a := Defaults()
	b := Defaults()
	if diff := cmp.Diff(a, b, cmp.Comparer(func(x, y Value) bool { return x == y })); diff != "" {
		t.Fatalf("Defaults() is not stable across calls (-first +second):\n%s", diff)
	}
}

func TestOverlayRightBiased(t *testing.T) {
	base := Layer{MatchHost: Present("api.example.com"), FailAfterCode: Present("502")}
	over := Layer{MatchHost: Present("admin.example.com")}

	merged, err := Overlay(base, over)
	require.NoError(t, err)

	assert.Equal(t, "admin.example.com", merged.Str(MatchHost))
	assert.Equal(t, 502, merged.Int(FailAfterCode))
}

func TestComposeAppliesLeftToRightPrecedence(t *testing.T) {
	defaults := Defaults()
	env := Layer{FailAfterPercentage: Present("10")}
	admin := Layer{FailAfterPercentage: Present("25")}
	request := Layer{} // no request-layer override for this key
	oneOff := Layer{FailAfterPercentage: Present("100")}

	resolved, err := Compose(defaults, env, admin, request, oneOff)
	require.NoError(t, err)

	assert.Equal(t, 100, resolved.Int(FailAfterPercentage))
}

func TestComposePreservesUnrelatedDefaults(t *testing.T) {
	defaults := Defaults()
	admin := Layer{MatchHost: Present("api.example.com")}

	resolved, err := Compose(defaults, admin)
	require.NoError(t, err)

	assert.Equal(t, "api.example.com", resolved.Str(MatchHost))
	assert.Equal(t, 502, resolved.Int(FailAfterCode))
	v, ok := resolved.Get(DestinationURL)
	require.True(t, ok)
	assert.False(t, v.IsPresent())
}

func TestDestinationURLPresentValueOverridesAbsentDefault(t *testing.T) {
	defaults := Defaults()
	admin := Layer{DestinationURL: Present("http://upstream:8080")}

	resolved, err := Compose(defaults, admin)
	require.NoError(t, err)

	v, ok := resolved.Get(DestinationURL)
	require.True(t, ok)
	assert.True(t, v.IsPresent())
	assert.Equal(t, "http://upstream:8080", v.String())
}

func TestHeaderNameRoundTrip(t *testing.T) {
	for _, k := range AllKeys() {
		name := HeaderName(k)
		got, ok := KeyFromHeaderName(name)
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
}

func TestFromHeaderDropsUnparsableInt(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderName(DelayAfterMs), "not-a-number")
	h.Set(HeaderName(MatchHost), "api.example.com")

	l := FromHeader(h)

	_, ok := l.Get(DelayAfterMs)
	assert.False(t, ok, "unparsable integer setting should be silently dropped")
	assert.Equal(t, "api.example.com", l.Str(MatchHost))
}

func TestFromHeaderIgnoresUnrecognizedHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("X-Lowdown-Not-A-Real-Key", "value")
	h.Set("Content-Type", "application/json")

	l := FromHeader(h)
	assert.Empty(t, l)
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		EnvName(FailAfterPercentage): "15",
		EnvName(MatchHost):           "api.example.com",
		EnvName(DelayBeforeMs):       "oops",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	l := FromEnv(lookup)

	assert.Equal(t, 15, l.Int(FailAfterPercentage))
	assert.Equal(t, "api.example.com", l.Str(MatchHost))
	_, ok := l.Get(DelayBeforeMs)
	assert.False(t, ok)
}

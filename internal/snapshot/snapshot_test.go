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

package snapshot

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/criccomini/lowdown/internal/configstore"
	"github.com/criccomini/lowdown/internal/matcher"
	"github.com/criccomini/lowdown/internal/settings"
)

func inputFor(t *testing.T, target string, headers map[string]string) matcher.Input {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return matcher.InputFromRequest(r)
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	store := configstore.New()
	snap, _, err := Resolve(store, settings.Layer{}, inputFor(t, "http://api.example.com/", nil), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, snap.FailAfterPercentage)
	assert.Equal(t, 502, snap.FailAfterCode)
	assert.False(t, snap.DestinationURL.IsPresent())
	assert.Empty(t, snap.ConsumedOneOffID)
}

func TestResolveLayersEnvThenAdminThenRequest(t *testing.T) {
	store := configstore.New()
	_, err := store.MergeAdmin(settings.Layer{settings.FailAfterPercentage: settings.Present("20")})
	require.NoError(t, err)

	env := settings.Layer{settings.FailAfterPercentage: settings.Present("10")}

	in := inputFor(t, "http://api.example.com/", map[string]string{
		settings.HeaderName(settings.FailAfterPercentage): "90",
	})

	snap, _, err := Resolve(store, env, in, nil)
	require.NoError(t, err)
	assert.Equal(t, 90, snap.FailAfterPercentage, "request layer should win over admin and env")
}

func TestResolveConsumesMatchingOneOffOnTopOfEverything(t *testing.T) {
	store := configstore.New()
	_, err := store.MergeAdmin(settings.Layer{settings.FailAfterPercentage: settings.Present("20")})
	require.NoError(t, err)

	rule := store.PushOneOff(settings.Layer{
		settings.MatchURIStartsWith: settings.Present("/widgets"),
		settings.FailAfterPercentage: settings.Present("100"),
	})

	in := inputFor(t, "http://api.example.com/widgets/1", nil)
	snap, _, err := Resolve(store, settings.Layer{}, in, nil)
	require.NoError(t, err)

	assert.Equal(t, 100, snap.FailAfterPercentage)
	assert.Equal(t, rule.ID, snap.ConsumedOneOffID)
	assert.Empty(t, store.ListOneOffs())
}

func TestResolveMatchedReflectsDestinationHostNotRequestHost(t *testing.T) {
	store := configstore.New()
	_, err := store.MergeAdmin(settings.Layer{
		settings.DestinationURL: settings.Present("http://backend.internal:9000"),
		settings.MatchHost:      settings.Present("backend.internal:9000"),
	})
	require.NoError(t, err)

	// The inbound request is addressed to the proxy, not the backend;
	// match-host must be evaluated against the resolved destination.
	in := inputFor(t, "http://proxy.local/widgets", nil)
	_, matched, err := Resolve(store, settings.Layer{}, in, nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestResolveUnmatchedWhenMatchHostDisagreesWithDestination(t *testing.T) {
	store := configstore.New()
	_, err := store.MergeAdmin(settings.Layer{
		settings.DestinationURL: settings.Present("http://backend.internal:9000"),
		settings.MatchHost:      settings.Present("other.internal"),
	})
	require.NoError(t, err)

	in := inputFor(t, "http://proxy.local/widgets", nil)
	_, matched, err := Resolve(store, settings.Layer{}, in, nil)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestResolveSkipsNonMatchingOneOff(t *testing.T) {
	store := configstore.New()
	store.PushOneOff(settings.Layer{
		settings.MatchURIStartsWith: settings.Present("/orders"),
		settings.FailAfterPercentage: settings.Present("100"),
	})

	in := inputFor(t, "http://api.example.com/widgets/1", nil)
	snap, _, err := Resolve(store, settings.Layer{}, in, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, snap.FailAfterPercentage)
	assert.Empty(t, snap.ConsumedOneOffID)
	assert.Len(t, store.ListOneOffs(), 1, "non-matching one-off stays queued")
}

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

// Package snapshot resolves the layered configuration (Defaults, Env,
// Admin, Request, OneOff) into a single typed Snapshot for one request,
// consuming at most one matching one-off rule in the process.
package snapshot

import (
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/criccomini/lowdown/internal/configstore"
	"github.com/criccomini/lowdown/internal/matcher"
	"github.com/criccomini/lowdown/internal/settings"
)

// Snapshot is the fully resolved, typed configuration for a single
// request: every field has a concrete value, with DestinationURL the only
// one that may still be Absent (no destination has ever been configured).
type Snapshot struct {
	DelayBeforeMs         int
	DelayBeforePercentage int
	DelayAfterMs          int
	DelayAfterPercentage  int
	FailBeforeCode        int
	FailBeforePercentage  int
	FailAfterCode         int
	FailAfterPercentage   int
	DuplicatePercentage   int
	DestinationURL        settings.Value

	// ConsumedOneOffID is the ID of the one-off rule consumed to build this
	// snapshot, or "" if none matched.
	ConsumedOneOffID string
}

// Resolve implements the layer resolution algorithm:
//  1. Start from Defaults.
//  2. Overlay the Env layer.
//  3. Overlay the current Admin layer.
//  4. Overlay the Request layer (X-Lowdown-* headers on the inbound request).
//  5. Resolve the destination URL from that composed base and compute the
//     host the Matcher uses for match-host (SPEC_FULL.md §4.3 step 3).
//  6. Scan queued one-off rules for one whose match-* settings match in;
//     atomically consume it (remove it from the queue) if found.
//  7. Overlay the consumed one-off's layer, if any, on top of everything else.
//
// The one-off's whole layer, its match-* settings included, is folded into
// the result. Because the rule was chosen only if base overlaid with it
// matched in, the final match check below agrees with that choice.
//
// Resolve also reports whether the request matches the final resolved
// layer's own match-* settings (§4.4): the lifecycle engine uses this to
// decide MATCHED vs UNMATCHED, independent of one-off consumption.
func Resolve(store *configstore.Store, env settings.Layer, in matcher.Input, log logrus.FieldLogger) (Snapshot, bool, error) {
	base, err := settings.Compose(settings.Defaults(), env, store.ReadAdmin(), settings.FromHeader(in.Header))
	if err != nil {
		return Snapshot{}, false, err
	}

	destIn := in
	if host := destinationHost(base); host != "" {
		destIn.Host = host
	}

	rule, consumed := store.TryConsumeOneOff(func(candidate settings.Layer) bool {
		// Evaluate the candidate's match-* settings layered on top of base,
		// so a one-off that narrows (say) match-uri-starts-with while
		// leaving match-host unset still respects whatever match-host the
		// Admin/Request layers already established, rather than treating
		// every field the one-off doesn't mention as an unconditional "*".
		view, err := settings.Overlay(base, candidate)
		if err != nil {
			return false
		}
		return matcher.Evaluate(view, destIn, log)
	})

	resolved := base
	var oneOffID string
	if consumed {
		resolved, err = settings.Overlay(base, rule.Layer)
		if err != nil {
			return Snapshot{}, false, err
		}
		oneOffID = rule.ID
	}

	matched := matcher.Evaluate(resolved, destIn, log)

	return FromLayer(resolved, oneOffID), matched, nil
}

// destinationHost returns the host[:port] of l's destination-url, or ""
// if no destination is configured or it does not parse as a URL.
func destinationHost(l settings.Layer) string {
	v, ok := l.Get(settings.DestinationURL)
	if !ok || !v.IsPresent() {
		return ""
	}
	u, err := url.Parse(v.String())
	if err != nil {
		return ""
	}
	return u.Host
}

// FromLayer converts a fully resolved Layer into a typed Snapshot.
func FromLayer(l settings.Layer, consumedOneOffID string) Snapshot {
	destURL, _ := l.Get(settings.DestinationURL)

	return Snapshot{
		DelayBeforeMs:         l.Int(settings.DelayBeforeMs),
		DelayBeforePercentage: l.Int(settings.DelayBeforePercentage),
		DelayAfterMs:          l.Int(settings.DelayAfterMs),
		DelayAfterPercentage:  l.Int(settings.DelayAfterPercentage),
		FailBeforeCode:        l.Int(settings.FailBeforeCode),
		FailBeforePercentage:  l.Int(settings.FailBeforePercentage),
		FailAfterCode:         l.Int(settings.FailAfterCode),
		FailAfterPercentage:   l.Int(settings.FailAfterPercentage),
		DuplicatePercentage:   l.Int(settings.DuplicatePercentage),
		DestinationURL:        destURL,
		ConsumedOneOffID:      consumedOneOffID,
	}
}

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

// Package lifecycle drives a single inbound request through the full
// state machine: resolve its configuration, decide which faults fire,
// and dispatch it (once, or twice for a duplicate) to its destination.
package lifecycle

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/criccomini/lowdown/internal/configstore"
	"github.com/criccomini/lowdown/internal/fault"
	"github.com/criccomini/lowdown/internal/forwarder"
	"github.com/criccomini/lowdown/internal/headers"
	"github.com/criccomini/lowdown/internal/matcher"
	"github.com/criccomini/lowdown/internal/settings"
	"github.com/criccomini/lowdown/internal/snapshot"
)

// State names a step of the request lifecycle, exposed so Recorder
// implementations (notably metrics) can tell what happened to a request
// without re-deriving it from the response alone.
type State string

const (
	StateReceived   State = "received"
	StateResolved   State = "resolved"
	StateUnmatched  State = "unmatched"
	StateMatched    State = "matched"
	StateFailBefore State = "fail-before"
	StateDispatched State = "dispatched"
	StateFailAfter  State = "fail-after"
	StateRespond    State = "respond"
)

// Recorder observes lifecycle events for metrics/logging. All methods must
// be safe for concurrent use. Engine.recorder substitutes NopRecorder when
// none is configured, so implementations never need to handle a nil.
type Recorder interface {
	ObserveState(State)
	ObserveFaultFired(kind string)
	ObserveOneOffConsumed()
	ObserveDuration(d time.Duration)
}

// NopRecorder discards every observation.
type NopRecorder struct{}

func (NopRecorder) ObserveState(State)        {}
func (NopRecorder) ObserveFaultFired(string)  {}
func (NopRecorder) ObserveOneOffConsumed()     {}
func (NopRecorder) ObserveDuration(time.Duration) {}

// Engine is the http.Handler that runs every inbound request through the
// lifecycle.
type Engine struct {
	Store     *configstore.Store
	Env       settings.Layer
	Decider   *fault.Decider
	Forwarder forwarder.Forwarder
	Recorder  Recorder
	Logger    logrus.FieldLogger
}

// NoDestinationConfigured is returned to the client when no layer has
// ever set destination-url. Per SPEC_FULL.md §7 this is a configuration
// error, reported the same way as a forwarding transport failure (502),
// not a 404: the proxy was never told where to send this traffic, which
// is a server-side misconfiguration rather than a missing client route.
const NoDestinationConfigured = http.StatusBadGateway

func (e *Engine) recorder() Recorder {
	if e.Recorder == nil {
		return NopRecorder{}
	}
	return e.Recorder
}

// ServeHTTP implements http.Handler, running r through the full lifecycle.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := e.recorder()
	rec.ObserveState(StateReceived)

	log := e.Logger.WithField("request_id", uuid.NewString())

	extractPathDestination(r)

	in := matcher.InputFromRequest(r)
	snap, matched, err := snapshot.Resolve(e.Store, e.Env, in, log)
	if err != nil {
		log.WithError(err).Error("resolving configuration snapshot")
		http.Error(w, "internal configuration error", http.StatusInternalServerError)
		return
	}
	rec.ObserveState(StateResolved)
	if snap.ConsumedOneOffID != "" {
		rec.ObserveOneOffConsumed()
		log = log.WithField("one_off_id", snap.ConsumedOneOffID)
	}

	if !snap.DestinationURL.IsPresent() {
		log.Error("no destination-url resolvable for this request")
		http.Error(w, "no destination configured", NoDestinationConfigured)
		rec.ObserveDuration(time.Since(start))
		return
	}

	if !matched {
		// UNMATCHED: forward once, untouched by fault injection, per
		// SPEC_FULL.md's MATCHED/UNMATCHED split.
		rec.ObserveState(StateUnmatched)
		resp, err := e.dispatch(r, snap, fault.Plan{}, rec, log)
		if err != nil {
			log.WithError(err).Warn("forwarding unmatched request to destination")
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			rec.ObserveDuration(time.Since(start))
			return
		}
		defer resp.Body.Close()
		rec.ObserveState(StateRespond)
		writeResponse(w, resp, r.Header.Get("Origin"))
		rec.ObserveDuration(time.Since(start))
		return
	}
	rec.ObserveState(StateMatched)

	plan := fault.Decide(e.Decider, snap)

	if plan.DelayBefore {
		rec.ObserveFaultFired("delay-before")
		sleep(r.Context(), time.Duration(snap.DelayBeforeMs)*time.Millisecond)
	}

	if plan.FailBefore {
		rec.ObserveFaultFired("fail-before")
		rec.ObserveState(StateFailBefore)
		w.WriteHeader(snap.FailBeforeCode)
		rec.ObserveDuration(time.Since(start))
		return
	}

	resp, err := e.dispatch(r, snap, plan, rec, log)
	if err != nil {
		log.WithError(err).Warn("forwarding request to destination")
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		rec.ObserveDuration(time.Since(start))
		return
	}
	defer resp.Body.Close()
	rec.ObserveState(StateDispatched)

	if plan.DelayAfter {
		rec.ObserveFaultFired("delay-after")
		sleep(r.Context(), time.Duration(snap.DelayAfterMs)*time.Millisecond)
	}

	rec.ObserveState(StateRespond)

	if plan.FailAfter {
		rec.ObserveFaultFired("fail-after")
		rec.ObserveState(StateFailAfter)
		w.WriteHeader(snap.FailAfterCode)
		rec.ObserveDuration(time.Since(start))
		return
	}

	writeResponse(w, resp, r.Header.Get("Origin"))
	rec.ObserveDuration(time.Since(start))
}

// dispatch sends r to its destination, firing a concurrent duplicate
// request when plan calls for one. Both dispatches are awaited before
// dispatch returns; their status codes are compared and logged, but only
// the primary (the first one built) is ever returned to the caller — a
// duplicate transport error never fails the request as long as the
// primary succeeds, matching the asymmetric duplication contract.
func (e *Engine) dispatch(r *http.Request, snap snapshot.Snapshot, plan fault.Plan, rec Recorder, log logrus.FieldLogger) (*http.Response, error) {
	primary, err := e.buildOutbound(r, snap.DestinationURL.String())
	if err != nil {
		return nil, err
	}

	if !plan.Duplicate {
		return e.Forwarder.Forward(r.Context(), primary)
	}
	rec.ObserveFaultFired("duplicate")

	duplicate, err := e.buildOutbound(r, snap.DestinationURL.String())
	if err != nil {
		// The duplicate is best-effort; a failure building it must not
		// block the primary dispatch.
		log.WithError(err).Warn("building duplicate request")
		return e.Forwarder.Forward(r.Context(), primary)
	}

	type result struct {
		resp *http.Response
		err  error
	}
	dupCh := make(chan result, 1)
	go func() {
		resp, err := e.Forwarder.Forward(r.Context(), duplicate)
		dupCh <- result{resp, err}
	}()

	primaryResp, primaryErr := e.Forwarder.Forward(r.Context(), primary)

	dup := <-dupCh
	switch {
	case dup.err != nil:
		log.WithError(dup.err).Debug("duplicate request failed, primary unaffected")
	case primaryErr != nil:
		// Primary failed outright; nothing meaningful to compare.
	case dup.resp.StatusCode != primaryResp.StatusCode:
		log.WithFields(logrus.Fields{
			"primary_status":   primaryResp.StatusCode,
			"duplicate_status": dup.resp.StatusCode,
		}).Warn("duplicate request disagreed with primary")
	default:
		log.Debug("duplicate request agreed with primary")
	}
	if dup.resp != nil {
		_, _ = io.Copy(io.Discard, dup.resp.Body)
		dup.resp.Body.Close()
	}

	return primaryResp, primaryErr
}

// buildOutbound constructs the outbound request for destination, reading
// and buffering r's body so it can be reused for a duplicate dispatch,
// and applies Host/Origin rewriting and hop-by-hop stripping.
func (e *Engine) buildOutbound(r *http.Request, destination string) (*http.Request, error) {
	var bodyBytes []byte
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		bodyBytes = b
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	clone := r.Clone(r.Context())
	clone.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	clone.ContentLength = int64(len(bodyBytes))

	out, err := forwarder.Rewrite(clone, destination)
	if err != nil {
		return nil, err
	}

	destURL := out.URL
	headers.RewriteHost(out, destURL)
	headers.RewriteOrigin(out, destURL)
	headers.Strip(out.Header)
	headers.StripLowdown(out.Header)

	return out, nil
}

func writeResponse(w http.ResponseWriter, resp *http.Response, clientOrigin string) {
	headers.Strip(resp.Header)
	headers.ReflectCORS(resp.Header, clientOrigin)

	dst := w.Header()
	for k, values := range resp.Header {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

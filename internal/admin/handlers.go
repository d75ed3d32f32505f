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

// Package admin wires the operator-facing HTTP surface: updating and
// resetting the admin settings layer, queueing one-off rules, listing
// request headers, and serving Prometheus metrics and health checks.
package admin

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/criccomini/lowdown/internal/configstore"
	"github.com/criccomini/lowdown/internal/settings"
)

// Handler is the admin HTTP surface. Construct with NewHandler and mount
// its ServeHTTP on a httpsvc.Service.
type Handler struct {
	store       *configstore.Store
	env         settings.Layer
	logger      logrus.FieldLogger
	development bool
	mux         *http.ServeMux
}

// NewHandler builds the admin mux. env is the environment-layer settings
// used (alongside Defaults and the current Admin layer) to compute the
// "effective settings" every update/reset/list response reports.
// development, if true, appends a trailing newline to every JSON response
// body, matching LOWDOWN_DEVELOPMENT's documented effect.
func NewHandler(store *configstore.Store, env settings.Layer, registry *prometheus.Registry, development bool, logger logrus.FieldLogger) *Handler {
	h := &Handler{store: store, env: env, logger: logger, development: development, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/update", h.handleUpdate)
	h.mux.HandleFunc("/api/v1/reset", h.handleReset)
	h.mux.HandleFunc("/api/v1/list", h.handleList)
	h.mux.HandleFunc("/api/v1/one-off", h.handleOneOff)
	h.mux.HandleFunc("/api/v1/list-headers", h.handleListHeaders)
	h.mux.HandleFunc("/health", h.handleHealth)
	h.mux.HandleFunc("/healthcheck", h.handleHealth)
	h.mux.HandleFunc("/", h.handleRoot)
	h.mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := h.store.MergeAdmin(settings.FromHeader(r.Header)); err != nil {
		h.logger.WithError(err).Error("merging admin layer")
		http.Error(w, "failed to merge configuration", http.StatusInternalServerError)
		return
	}
	h.writeEffective(w)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.store.ResetAdmin()
	if _, err := h.store.MergeAdmin(settings.FromHeader(r.Header)); err != nil {
		h.logger.WithError(err).Error("setting admin layer on reset")
		http.Error(w, "failed to reset configuration", http.StatusInternalServerError)
		return
	}
	h.writeEffective(w)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeEffective(w)
}

func (h *Handler) handleOneOff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rule := h.store.PushOneOff(settings.FromHeader(r.Header))
	h.writeJSON(w, oneOffJSON(rule))
}

func (h *Handler) handleListHeaders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var lowdown, other []string
	for name := range r.Header {
		if strings.HasPrefix(http.CanonicalHeaderKey(name), settings.HeaderPrefix) {
			lowdown = append(lowdown, name)
		} else {
			other = append(other, name)
		}
	}
	sort.Strings(lowdown)
	sort.Strings(other)
	h.logger.WithFields(logrus.Fields{"lowdown_headers": lowdown, "other_headers": other}).Info("listing request headers")

	all := append(append([]string{}, lowdown...), other...)
	sort.Strings(all)
	h.writeJSON(w, all)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"service": "lowdown", "status": "healthy"})
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, map[string]string{"service": "lowdown"})
}

func (h *Handler) writeEffective(w http.ResponseWriter) {
	effective, err := settings.Compose(settings.Defaults(), h.env, h.store.ReadAdmin())
	if err != nil {
		h.logger.WithError(err).Error("composing effective settings")
		http.Error(w, "failed to compose configuration", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, layerJSON(effective))
}

// oneOffJSON renders a queued one-off rule as JSON: its own layer's
// settings plus id/created-at, per the documented one-off response shape.
func oneOffJSON(rule configstore.OneOffRule) map[string]interface{} {
	out := layerJSON(rule.Layer)
	out["id"] = rule.ID
	out["created-at"] = rule.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z")
	return out
}

// layerJSON renders l as a kebab-case JSON object: numeric keys encode as
// JSON numbers, every other recognized key as a string, and a key that l
// does not set or holds as absent encodes as JSON null. In the effective
// settings only destination-url can be null; in a one-off rule's layer,
// every key the rule does not set is null.
func layerJSON(l settings.Layer) map[string]interface{} {
	out := make(map[string]interface{}, len(settings.AllKeys()))
	for _, k := range settings.AllKeys() {
		v, ok := l.Get(k)
		if !ok || !v.IsPresent() {
			out[string(k)] = nil
			continue
		}
		if settings.KindOf(k) == settings.KindInt {
			out[string(k)] = l.Int(k)
			continue
		}
		out[string(k)] = v.String()
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to render response", http.StatusInternalServerError)
		return
	}
	if h.development {
		out = append(out, '\n')
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

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

package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/criccomini/lowdown/internal/admin"
	"github.com/criccomini/lowdown/internal/configstore"
	"github.com/criccomini/lowdown/internal/fault"
	"github.com/criccomini/lowdown/internal/forwarder"
	"github.com/criccomini/lowdown/internal/httpsvc"
	"github.com/criccomini/lowdown/internal/lifecycle"
	"github.com/criccomini/lowdown/internal/metrics"
	"github.com/criccomini/lowdown/internal/settings"
	"github.com/criccomini/lowdown/internal/workgroup"
)

// doServe wires together the configuration store, lifecycle engine,
// metrics, and the two HTTP services (proxy and admin), then runs them
// as a workgroup.Group so either one exiting brings down the other.
func doServe(log *logrus.Logger, cfg *serveConfig) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "parsing log level")
	}
	log.SetLevel(level)

	env, err := loadEnvLayer(cfg.ConfigFile)
	if err != nil {
		return errors.Wrap(err, "loading environment configuration layer")
	}

	store := configstore.New()
	registry := prometheus.NewRegistry()
	recorder := metrics.NewMetrics(registry)

	engine := &lifecycle.Engine{
		Store:     store,
		Env:       env,
		Decider:   fault.NewDecider(),
		Forwarder: forwarder.NewHTTPForwarder(),
		Recorder:  recorder,
		Logger:    log.WithField("component", "lifecycle"),
	}

	proxy := &httpsvc.Service{
		Addr:        cfg.ProxyAddress,
		Port:        cfg.ProxyPort,
		Handler:     engine,
		FieldLogger: log.WithField("context", "proxy"),
	}

	adminHandler := admin.NewHandler(store, env, registry, cfg.Development, log.WithField("component", "admin"))
	adminSvc := &httpsvc.Service{
		Addr:        cfg.AdminAddress,
		Port:        cfg.AdminPort,
		Handler:     adminHandler,
		FieldLogger: log.WithField("context", "admin"),
	}

	var wg workgroup.Group
	wg.Add(proxy.Start)
	wg.Add(adminSvc.Start)

	return wg.Run(context.Background())
}

// loadEnvLayer builds the Env layer from the bare per-setting environment
// variables (DESTINATION_URL, FAIL_AFTER_PERCENTAGE, ...), then overlays
// any settings found in configFile, if one was given. The
// file holds a flat mapping of setting key to string value, e.g.:
//
//	fail-after-percentage: "10"
//	match-host: "api.example.com"
func loadEnvLayer(configFile string) (settings.Layer, error) {
	env := settings.FromEnv(os.LookupEnv)
	if configFile == "" {
		return env, nil
	}

	raw, err := os.ReadFile(configFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	var fileValues map[string]string
	if err := yaml.Unmarshal(raw, &fileValues); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	fileLayer := settings.Layer{}
	for k, v := range fileValues {
		key := settings.Key(k)
		if !settings.IsRecognized(key) {
			continue
		}
		fileLayer = fileLayer.Set(key, settings.Present(v))
	}

	return settings.Overlay(env, fileLayer)
}

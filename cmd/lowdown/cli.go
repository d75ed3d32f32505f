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
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sirupsen/logrus"

	"github.com/criccomini/lowdown/internal/build"
)

// registerApp builds the kingpin application: a "serve" subcommand that
// runs the proxy and admin servers, and a "version" subcommand that
// prints build information and exits.
func registerApp(log *logrus.Logger) (*kingpin.Application, *serveConfig) {
	app := kingpin.New("lowdown", "A fault-injecting reverse HTTP proxy for resilience testing.")

	var cfg serveConfig
	serveCmd := app.Command("serve", "Run the proxy and admin HTTP servers.").Default()
	serveCmd.Flag("proxy-bind", "Address the proxy listener binds to.").
		Default("127.0.0.1").Envar("PROXY_BIND").StringVar(&cfg.ProxyAddress)
	serveCmd.Flag("proxy-port", "Port the proxy listener binds to.").
		Default("8080").Envar("PROXY_PORT").IntVar(&cfg.ProxyPort)
	serveCmd.Flag("admin-bind", "Address the admin listener binds to.").
		Default("127.0.0.1").Envar("ADMIN_BIND").StringVar(&cfg.AdminAddress)
	serveCmd.Flag("admin-port", "Port the admin listener binds to.").
		Default("7070").Envar("ADMIN_PORT").IntVar(&cfg.AdminPort)
	serveCmd.Flag("log-level", "Logging level: panic, fatal, error, warn, info, debug, trace.").
		Default("info").Envar("LOWDOWN_LOG_LEVEL").StringVar(&cfg.LogLevel)
	serveCmd.Flag("development", "Append a trailing newline to admin JSON responses.").
		Default("false").Envar("LOWDOWN_DEVELOPMENT").BoolVar(&cfg.Development)
	serveCmd.Flag("config-file", "Optional YAML file overlaying environment-layer settings at startup.").
		Envar("LOWDOWN_CONFIG_FILE").StringVar(&cfg.ConfigFile)

	versionCmd := app.Command("version", "Print build information and exit.")
	versionCmd.Action(func(*kingpin.ParseContext) error {
		_, err := os.Stdout.WriteString(build.PrintBuildInfo())
		return err
	})

	return app, &cfg
}

// serveConfig holds the parsed flags for the serve subcommand.
type serveConfig struct {
	ProxyAddress string
	ProxyPort    int
	AdminAddress string
	AdminPort    int
	LogLevel     string
	Development  bool
	ConfigFile   string
}

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

// Command lowdown runs a fault-injecting reverse HTTP proxy: a proxy
// listener that forwards (and sometimes delays, fails, or duplicates)
// requests to a configured destination, and an admin listener for
// controlling that behavior at runtime.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"
)

func main() {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{})

	// TZ is honored by the Go runtime itself (time.Local resolves it at
	// process start), so log timestamps follow it with no extra wiring;
	// this only surfaces what took effect.
	if tz := os.Getenv("TZ"); tz != "" {
		log.WithField("tz", tz).Debug("using timezone from TZ for log timestamps")
	}

	app, cfg := registerApp(log)

	cmd, err := app.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lowdown: %v\n", err)
		os.Exit(1)
	}

	if cmd == "serve" {
		if err := doServe(log, cfg); err != nil {
			log.WithError(err).Fatal("lowdown exited with an error")
		}
	}
}

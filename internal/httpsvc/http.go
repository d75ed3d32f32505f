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

// Package httpsvc provides a HTTP/1.x service compatible with
// workgroup.Group's Add contract.
package httpsvc

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Service is a HTTP/1.x endpoint which is compatible with workgroup.Group.Add.
// No TLS is offered on the listen side; that is an explicit non-goal of the
// proxy this service backs.
type Service struct {
	Addr string
	Port int

	// Handler serves every request accepted by this Service.
	Handler http.Handler

	logrus.FieldLogger
}

// Start fulfills the workgroup.Group.Add contract. When stop is closed the
// HTTP server shuts down with a grace period.
func (svc *Service) Start(stop <-chan struct{}) (err error) {
	defer func() {
		if err != nil && err != http.ErrServerClosed {
			svc.WithError(err).Error("terminated HTTP server with error")
		} else {
			svc.Info("stopped HTTP server")
			err = nil
		}
	}()

	s := http.Server{
		Addr:           net.JoinHostPort(svc.Addr, strconv.Itoa(svc.Port)),
		Handler:        svc.Handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Minute, // fault injection can hold requests open for a long time
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-stop

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx) // always a cancellation/closed error, ignored
	}()

	svc.WithField("address", s.Addr).Info("started HTTP server")
	return s.ListenAndServe()
}

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

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/criccomini/lowdown/internal/lifecycle"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m io_prometheus_client.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetricsRecordsFaultsAndStates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveState(lifecycle.StateReceived)
	m.ObserveState(lifecycle.StateReceived)
	m.ObserveFaultFired("fail-after")
	m.ObserveOneOffConsumed()
	m.ObserveDuration(250 * time.Millisecond)

	assert.Equal(t, float64(2), counterValue(t, m.requestsByState.WithLabelValues(string(lifecycle.StateReceived))))
	assert.Equal(t, float64(1), counterValue(t, m.faultsFired.WithLabelValues("fail-after")))
	assert.Equal(t, float64(1), counterValue(t, m.oneOffsConsumedTotal))
}

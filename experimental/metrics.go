// Package experimental holds pwasm APIs outside its compatibility
// guarantees: a context.Context-keyed hook for optional behavior, so it
// can be threaded through api.Function.Call without growing RuntimeConfig.
package experimental

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsKey struct{}

// Metrics counts exported-function calls and traps, labeled by module and
// function name.
type Metrics struct {
	Calls *prometheus.CounterVec
	Traps *prometheus.CounterVec
}

// WithMetrics registers call/trap counters against reg and returns a
// context that makes api.Function.Call record them when passed through.
// A Runtime never touches reg unless this is called: metrics are off by
// default.
func WithMetrics(ctx context.Context, reg prometheus.Registerer) context.Context {
	m := &Metrics{
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pwasm_function_calls_total",
			Help: "Count of exported WebAssembly function calls, by module and function name.",
		}, []string{"module", "function"}),
		Traps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pwasm_function_traps_total",
			Help: "Count of exported WebAssembly function calls that trapped, by module and function name.",
		}, []string{"module", "function"}),
	}
	reg.MustRegister(m.Calls, m.Traps)
	return context.WithValue(ctx, metricsKey{}, m)
}

// FromContext returns the Metrics installed by WithMetrics, or nil if none.
func FromContext(ctx context.Context) *Metrics {
	m, _ := ctx.Value(metricsKey{}).(*Metrics)
	return m
}

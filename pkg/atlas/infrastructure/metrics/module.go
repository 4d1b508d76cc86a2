package metrics

import (
	"go.uber.org/fx"

	coremetrics "github.com/sunkan/Atlas.Orm/pkg/atlas/core/metrics"
)

// Module provides the Prometheus recorder to Fx, both as the concrete type (for the
// metrics endpoint) and as the core MetricRecorder interface.
var Module = fx.Options(
	fx.Provide(NewPrometheusRecorder),
	fx.Provide(func(r *PrometheusRecorder) coremetrics.MetricRecorder { return r }),
)

package cache

import "time"

//go:generate mockgen -destination=mocks/mock_metrics.go -package=mocks . Metrics

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                                {}
func (NoopMetrics) Miss()                               {}
func (NoopMetrics) Evict(EvictReason)                   {}
func (NoopMetrics) Size(int)                            {}
func (NoopMetrics) ObserveCompute(time.Duration, error) {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}

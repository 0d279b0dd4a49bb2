/*
Package observability turns engine lifecycle events into metrics and logs.

Metrics records Prometheus counters and histograms; LogHooks writes debug logs.
Both produce domain.LifecycleHooks, and Combine fans one event out to several of them:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))
	engine, err := concierge.New(agent, oracle, concierge.WithLifecycleHooks(hooks))
*/
package observability

package metrics

import "github.com/prometheus/client_golang/prometheus"

type Observer interface {
	Observe(val float64, labels ...string)

	// for now we will tightly couple to the prometheus collector type
	// the go otel metrics sdk also has a prometheus adapter that implements this interface.
	prometheus.Collector
}

type Metrics struct {
	CommandsDispatched Observer
	DispatchFailures   Observer
	UpdatesRouted      Observer
	RuleFailures       Observer
	MinigamesSolved    Observer
	PredictLatency     Observer
	CaptchaSeen        Observer
	Replays            Observer
}

func (m Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CommandsDispatched,
		m.DispatchFailures,
		m.UpdatesRouted,
		m.RuleFailures,
		m.MinigamesSolved,
		m.PredictLatency,
		m.CaptchaSeen,
		m.Replays,
	}
}

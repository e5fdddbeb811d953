package deepzoom

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics registers gauge functions exposing a scheduler's live
// state and an orchestrator's active tile count to Prometheus, grounded on
// qrank-webserver/main.go's prometheus.NewGaugeFunc idiom (a closure
// sampled on scrape, no counters to update by hand). Intended to be called
// once per dataset/viewer instance before serving "/metrics" via
// promhttp.Handler.
func RegisterMetrics(reg prometheus.Registerer, dataset string, sched *Scheduler, orch *Orchestrator, status *StatusPoller) error {
	labels := prometheus.Labels{"dataset": dataset}

	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "deepzoom",
			Name:        "scheduler_queue_length",
			Help:        "Number of tile requests queued but not yet dispatched.",
			ConstLabels: labels,
		}, func() float64 { return float64(sched.QueueLen()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "deepzoom",
			Name:        "scheduler_active_static",
			Help:        "Number of in-flight static-lane tile requests.",
			ConstLabels: labels,
		}, func() float64 { return float64(sched.ActiveCount(LaneStatic)) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "deepzoom",
			Name:        "scheduler_active_live",
			Help:        "Number of in-flight live-render tile requests.",
			ConstLabels: labels,
		}, func() float64 { return float64(sched.ActiveCount(LaneLive)) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "deepzoom",
			Name:        "orchestrator_active_tiles",
			Help:        "Number of tiles currently tracked by the render orchestrator.",
			ConstLabels: labels,
		}, func() float64 { return float64(orch.ActiveTileCount()) }),
	}

	if status != nil {
		gauges = append(gauges,
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   "deepzoom",
				Name:        "live_backend_up",
				Help:        "1 if the live-render backend answered its last status poll, else 0.",
				ConstLabels: labels,
			}, func() float64 {
				if status.Current().Up {
					return 1
				}
				return 0
			}),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   "deepzoom",
				Name:        "live_backend_active_renders",
				Help:        "Active render count last reported by the live-render backend.",
				ConstLabels: labels,
			}, func() float64 { return float64(status.Current().ActiveRenders) }),
		)
	}

	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}

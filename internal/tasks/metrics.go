package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
)

var tasksGauge = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "tasks",
		Help: "Number of tasks in the store by state",
	},
	[]string{"state"},
)

func init() {
	prometheus.MustRegister(tasksGauge)
}

// ObserveStore keeps the task gauges in step with s.
func ObserveStore(s *Store) (cancel func()) {
	record(s.Snapshot())
	return s.Subscribe(record)
}

func record(snap []Task) {
	st := ComputeStats(snap)
	tasksGauge.WithLabelValues("active").Set(float64(st.Active))
	tasksGauge.WithLabelValues("completed").Set(float64(st.Completed))
	tasksGauge.WithLabelValues("high_priority").Set(float64(st.HighPriority))
}

// Package metrics provides Prometheus instrumentation for sourcify.
package metrics

import "time"

// RecordRun records one verification run with its terminal status
// ("ok", "no_metadata", "malformed").
func RecordRun(status string, d time.Duration) {
	if !enabled {
		return
	}
	runTotal.WithLabelValues(status).Inc()
	runDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordContract records one checked contract by validity.
func RecordContract(valid bool) {
	if !enabled {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	contractTotal.WithLabelValues(result).Inc()
}

// RecordSources records n resolved source entries with the given outcome
// ("found", "missing", "invalid").
func RecordSources(outcome string, n int) {
	if !enabled || n == 0 {
		return
	}
	sourceTotal.WithLabelValues(outcome).Add(float64(n))
}

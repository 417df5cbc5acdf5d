package infra

import "sync/atomic"

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	cyclesTotal      atomic.Uint64
	deliveriesTotal  atomic.Uint64
	deliveryFailures atomic.Uint64
	staleSkipped     atomic.Uint64
	providerErrors   atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordCycle records one completed dispatch cycle.
func (m *Metrics) RecordCycle() {
	m.cyclesTotal.Add(1)
}

// RecordDelivery records one successful delivery attempt.
func (m *Metrics) RecordDelivery() {
	m.deliveriesTotal.Add(1)
}

// RecordDeliveryFailure records a failed delivery attempt.
func (m *Metrics) RecordDeliveryFailure() {
	m.deliveryFailures.Add(1)
}

// RecordStaleSkip records a destination skipped because it vanished from
// the store mid-cycle.
func (m *Metrics) RecordStaleSkip() {
	m.staleSkipped.Add(1)
}

// RecordProviderError records a market-data provider failure.
func (m *Metrics) RecordProviderError() {
	m.providerErrors.Add(1)
}

// Snapshot returns current counter values for logging or debug endpoints.
func (m *Metrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"cycles_total":      m.cyclesTotal.Load(),
		"deliveries_total":  m.deliveriesTotal.Load(),
		"delivery_failures": m.deliveryFailures.Load(),
		"stale_skipped":     m.staleSkipped.Load(),
		"provider_errors":   m.providerErrors.Load(),
	}
}

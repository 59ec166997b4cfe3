package processor

import (
	"context"
	"log"
	"time"

	"rinha-payment-gateway/internal/config"
)

// Monitor runs the health-probe loop for one processor. It owns
// writing State via SetProbeResult, the authoritative update — a send
// failure observed elsewhere may mark a processor unhealthy early, but
// only a probe result can mark it healthy again.
type Monitor struct {
	name   string
	client *Client
	state  *State

	// onProbe, if set, is called after every probe with the freshly
	// observed result. Used to seed the cross-replica coordination
	// publish without the Monitor depending on the coordination
	// package directly.
	onProbe func(healthy bool, minLatencyMs int)

	// consecutiveFailures lengthens the effective sleep between
	// probes under sustained failure, bounded below by
	// config.HealthCheckInterval, never shorter.
	consecutiveFailures int
}

func NewMonitor(name string, client *Client, state *State) *Monitor {
	return &Monitor{name: name, client: client, state: state}
}

// OnProbe registers a callback invoked after each probe.
func (m *Monitor) OnProbe(fn func(healthy bool, minLatencyMs int)) {
	m.onProbe = fn
}

// Run blocks, probing every nextInterval() until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.nextInterval()):
		}
		m.probe(ctx)
	}
}

func (m *Monitor) probe(ctx context.Context) {
	healthy, minLatencyMs, err := m.client.CheckHealth(ctx)
	if err != nil {
		// Transport error, non-2xx, parse error, or timeout: mark
		// unhealthy, leave the last observed latency alone.
		m.state.SetHealthy(false)
		m.consecutiveFailures++
		log.Printf("HEALTH_PROBE_FAILED processor=%s err=%v consecutive=%d", m.name, err, m.consecutiveFailures)
		if m.onProbe != nil {
			m.onProbe(false, m.state.MinLatencyMs())
		}
		return
	}

	m.consecutiveFailures = 0
	m.state.SetProbeResult(healthy, minLatencyMs)
	log.Printf("HEALTH_PROBE processor=%s healthy=%t minLatencyMs=%d", m.name, healthy, minLatencyMs)
	if m.onProbe != nil {
		m.onProbe(healthy, minLatencyMs)
	}
}

// nextInterval never returns less than the contractual 5s cadence; it
// may lengthen under sustained failure so a visibly dead processor
// doesn't burn probe budget the downstream rate-limiter would punish.
func (m *Monitor) nextInterval() time.Duration {
	switch {
	case m.consecutiveFailures >= 6:
		return config.HealthCheckInterval * 3
	case m.consecutiveFailures >= 2:
		return config.HealthCheckInterval * 2
	default:
		return config.HealthCheckInterval
	}
}

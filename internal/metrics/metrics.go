// Package metrics exposes the coordinator's Prometheus instrumentation.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once   sync.Once
	shared *Service
)

// Service bundles all collectors. New returns a process-wide singleton so
// repeated wiring (and tests) never double-register against the default
// registry.
type Service struct {
	operations  *prometheus.CounterVec
	oracleCalls *prometheus.HistogramVec
	poolSize    *prometheus.GaugeVec
	feeBalance  *prometheus.GaugeVec
	eventsSent  prometheus.Counter
}

// New returns the shared metrics service.
func New() *Service {
	once.Do(func() {
		shared = &Service{
			operations: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "treasury_operations_total",
				Help: "Treasury operations by name and result.",
			}, []string{"op", "result"}),
			oracleCalls: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "treasury_oracle_call_duration_seconds",
				Help:    "Latency of signing network calls.",
				Buckets: prometheus.DefBuckets,
			}, []string{"call", "result"}),
			poolSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "treasury_presign_pool_size",
				Help: "Pooled presigns per treasury and algorithm.",
			}, []string{"treasury_id", "algorithm"}),
			feeBalance: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "treasury_fee_balance_base_units",
				Help: "Fee balances per treasury and token, in base units.",
			}, []string{"treasury_id", "token"}),
			eventsSent: promauto.NewCounter(prometheus.CounterOpts{
				Name: "treasury_events_published_total",
				Help: "Events published to the event stream.",
			}),
		}
	})
	return shared
}

// IncOperation counts one finished operation.
func (s *Service) IncOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.operations.WithLabelValues(op, result).Inc()
}

// ObserveOracleCall records the latency of one signing network call.
func (s *Service) ObserveOracleCall(call string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.oracleCalls.WithLabelValues(call, result).Observe(time.Since(start).Seconds())
}

// SetPoolSize updates the pool gauge for one treasury and algorithm.
func (s *Service) SetPoolSize(treasuryID string, algorithm string, n int) {
	s.poolSize.WithLabelValues(treasuryID, algorithm).Set(float64(n))
}

// SetFeeBalance updates the balance gauge for one treasury and token.
func (s *Service) SetFeeBalance(treasuryID string, token string, baseUnits uint64) {
	s.feeBalance.WithLabelValues(treasuryID, token).Set(float64(baseUnits))
}

// IncEventPublished counts one published event.
func (s *Service) IncEventPublished() {
	s.eventsSent.Inc()
}

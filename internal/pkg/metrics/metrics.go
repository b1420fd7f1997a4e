// Package metrics exposes Prometheus metrics for the attendance service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and jobs report to.
type Recorder interface {
	RecordLedgerOperation(op string, err error)
	RecordDataWarning(kind string)
	RecordHolidayFallback(reason string)
	SetStaleOpenShifts(n int)
}

// Collector records metrics into a Prometheus registry.
type Collector struct {
	ledgerOps        *prometheus.CounterVec
	dataWarnings     *prometheus.CounterVec
	holidayFallbacks *prometheus.CounterVec
	staleOpenShifts  prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_ledger_operations_total",
			Help: "Ledger mutations by operation and result.",
		}, []string{"operation", "result"}),
		dataWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_data_warnings_total",
			Help: "Data-quality warnings raised while deriving day figures.",
		}, []string{"kind"}),
		holidayFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_holiday_fallbacks_total",
			Help: "Holiday lookups answered from stale cache or defaults.",
		}, []string{"reason"}),
		staleOpenShifts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "attendance_stale_open_shifts",
			Help: "Attendance days still open past the stale threshold.",
		}),
	}

	reg.MustRegister(c.ledgerOps, c.dataWarnings, c.holidayFallbacks, c.staleOpenShifts)

	return c
}

func (c *Collector) RecordLedgerOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.ledgerOps.WithLabelValues(op, result).Inc()
}

func (c *Collector) RecordDataWarning(kind string) {
	c.dataWarnings.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordHolidayFallback(reason string) {
	c.holidayFallbacks.WithLabelValues(reason).Inc()
}

func (c *Collector) SetStaleOpenShifts(n int) {
	c.staleOpenShifts.Set(float64(n))
}

// Handler serves the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordLedgerOperation(string, error) {}
func (Nop) RecordDataWarning(string)            {}
func (Nop) RecordHolidayFallback(string)        {}
func (Nop) SetStaleOpenShifts(int)              {}

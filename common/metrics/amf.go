package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AMF-specific metrics
var (
	// UE Registration metrics
	RegisteredUEs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amf_registered_ues_total",
			Help: "Total number of registered UEs",
		},
	)

	RegistrationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amf_registration_attempts_total",
			Help: "Total number of UE registration attempts",
		},
		[]string{"result"},
	)

	// Authentication metrics
	AuthenticationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amf_authentication_requests_total",
			Help: "Total number of authentication requests",
		},
		[]string{"result"},
	)

	// Mobility metrics
	HandoverAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amf_handover_attempts_total",
			Help: "Total number of handover attempts",
		},
		[]string{"result"},
	)

	// Connection metrics
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amf_active_connections",
			Help: "Number of active UE connections",
		},
	)

	// PDU session metrics
	PduSessionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amf_pdu_session_attempts_total",
			Help: "Total number of PDU session create/release attempts",
		},
		[]string{"operation", "result"},
	)

	ActivePduSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amf_active_pdu_sessions",
			Help: "Number of currently active PDU sessions",
		},
	)

	// System load, reported to the self-NF entry every monitor tick
	SystemLoad = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amf_system_load_percent",
			Help: "activeUeConnections * 100 / maxUeConnections",
		},
	)

	// Process-health gauges carried from the original AmfStatistics
	// struct (averageResponseTime/memoryUsage/cpuUsage).
	AverageResponseTimeMs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amf_average_response_time_milliseconds",
			Help: "Mean HandleSbiMessage latency across all processed messages",
		},
	)
	MemoryUsageBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amf_memory_usage_bytes",
			Help: "Bytes currently allocated on the Go heap (runtime.MemStats.Alloc)",
		},
	)
	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amf_goroutines",
			Help: "Live goroutine count, reported in place of a per-process CPU percentage",
		},
	)
)

// SetRegisteredUEs sets the count of registered UEs
func SetRegisteredUEs(count int) {
	RegisteredUEs.Set(float64(count))
}

// RecordRegistrationAttempt records a registration attempt
func RecordRegistrationAttempt(result string) {
	RegistrationAttempts.WithLabelValues(result).Inc()
}

// RecordAuthenticationRequest records an authentication request
func RecordAuthenticationRequest(result string) {
	AuthenticationRequests.WithLabelValues(result).Inc()
}

// RecordHandoverAttempt records a handover attempt
func RecordHandoverAttempt(result string) {
	HandoverAttempts.WithLabelValues(result).Inc()
}

// SetActiveConnections sets the number of active connections
func SetActiveConnections(count int) {
	ActiveConnections.Set(float64(count))
}

// RecordPduSessionAttempt records a PDU session create or release attempt
func RecordPduSessionAttempt(operation, result string) {
	PduSessionAttempts.WithLabelValues(operation, result).Inc()
}

// SetActivePduSessions sets the current active PDU session count
func SetActivePduSessions(count int) {
	ActivePduSessions.Set(float64(count))
}

// SetSystemLoad sets the reported system load percentage
func SetSystemLoad(percent float64) {
	SystemLoad.Set(percent)
}

// SetAverageResponseTimeMs reports the mean SBI message processing latency.
func SetAverageResponseTimeMs(ms float64) {
	AverageResponseTimeMs.Set(ms)
}

// SetMemoryUsageBytes reports current heap allocation.
func SetMemoryUsageBytes(bytes uint64) {
	MemoryUsageBytes.Set(float64(bytes))
}

// SetGoroutines reports the live goroutine count.
func SetGoroutines(count int) {
	Goroutines.Set(float64(count))
}

package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Ledger metrics
	TouchpointsRecordedTotal int64
	TouchpointErrorsTotal    int64

	// Attribution metrics
	AttributionCalcsTotal   int64
	AttributionErrorsTotal  int64
	lastAttributionDuration time.Duration

	// Performance report metrics
	ReportsTotal       int64
	ReportErrorsTotal  int64
	lastReportDuration time.Duration

	// WebSocket feed metrics
	FeedConnectionsTotal    int64
	FeedDisconnectionsTotal int64
	FeedMessagesTotal       int64
	FeedErrorsTotal         int64
	activeConnections       int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			httpRequestsTotal:    make(map[string]map[int]int64),
			httpRequestDurations: make(map[string][]float64),
			startTime:            time.Now(),
		}
	})
	return instance
}

// RecordTouchpoint increments the recorded touchpoint counter
func (m *Metrics) RecordTouchpoint() {
	m.mu.Lock()
	m.TouchpointsRecordedTotal++
	m.mu.Unlock()
}

// RecordTouchpointError increments the touchpoint write error counter
func (m *Metrics) RecordTouchpointError() {
	m.mu.Lock()
	m.TouchpointErrorsTotal++
	m.mu.Unlock()
}

// RecordAttributionCalc records a completed attribution calculation
func (m *Metrics) RecordAttributionCalc(duration time.Duration) {
	m.mu.Lock()
	m.AttributionCalcsTotal++
	m.lastAttributionDuration = duration
	m.mu.Unlock()
}

// RecordAttributionError increments the attribution error counter
func (m *Metrics) RecordAttributionError() {
	m.mu.Lock()
	m.AttributionErrorsTotal++
	m.mu.Unlock()
}

// RecordReport records a completed performance report
func (m *Metrics) RecordReport(duration time.Duration) {
	m.mu.Lock()
	m.ReportsTotal++
	m.lastReportDuration = duration
	m.mu.Unlock()
}

// RecordReportError increments the report error counter
func (m *Metrics) RecordReportError() {
	m.mu.Lock()
	m.ReportErrorsTotal++
	m.mu.Unlock()
}

// RecordFeedConnect increments feed connection counters
func (m *Metrics) RecordFeedConnect() {
	m.mu.Lock()
	m.FeedConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordFeedDisconnect increments the feed disconnection counter
func (m *Metrics) RecordFeedDisconnect() {
	m.mu.Lock()
	m.FeedDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordFeedMessage increments the feed message counter
func (m *Metrics) RecordFeedMessage() {
	m.mu.Lock()
	m.FeedMessagesTotal++
	m.mu.Unlock()
}

// RecordFeedError increments the feed error counter
func (m *Metrics) RecordFeedError() {
	m.mu.Lock()
	m.FeedErrorsTotal++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket feed connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("closeloop_uptime_seconds", time.Since(m.startTime).Seconds())

		// Ledger metrics
		write("closeloop_touchpoints_recorded_total", m.TouchpointsRecordedTotal)
		write("closeloop_touchpoint_errors_total", m.TouchpointErrorsTotal)

		// Calculate touchpoints per second
		uptimeSeconds := time.Since(m.startTime).Seconds()
		if uptimeSeconds > 0 {
			write("closeloop_touchpoints_per_second", float64(m.TouchpointsRecordedTotal)/uptimeSeconds)
		}

		// Attribution metrics
		write("closeloop_attribution_calcs_total", m.AttributionCalcsTotal)
		write("closeloop_attribution_errors_total", m.AttributionErrorsTotal)
		write("closeloop_attribution_duration_seconds", m.lastAttributionDuration.Seconds())

		// Performance report metrics
		write("closeloop_reports_total", m.ReportsTotal)
		write("closeloop_report_errors_total", m.ReportErrorsTotal)
		write("closeloop_report_duration_seconds", m.lastReportDuration.Seconds())

		// Feed metrics
		write("closeloop_feed_connections_total", m.FeedConnectionsTotal)
		write("closeloop_feed_disconnections_total", m.FeedDisconnectionsTotal)
		write("closeloop_feed_active_connections", m.activeConnections)
		write("closeloop_feed_messages_total", m.FeedMessagesTotal)
		write("closeloop_feed_errors_total", m.FeedErrorsTotal)

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("closeloop_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}

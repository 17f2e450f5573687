package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	SessionsCreated    uint64
	SessionsEnded      uint64
	ReportsSubmitted   uint64
	ReportsRejected    uint64
	ChatMessages       uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementInProgress increments in-progress request counter
func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

// DecrementInProgress decrements in-progress request counter
func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

func IncrementSessionsCreated() {
	atomic.AddUint64(&globalMetrics.SessionsCreated, 1)
}

func IncrementSessionsEnded() {
	atomic.AddUint64(&globalMetrics.SessionsEnded, 1)
}

// IncrementReports counts a report accepted for analysis
func IncrementReports() {
	atomic.AddUint64(&globalMetrics.ReportsSubmitted, 1)
}

// IncrementReportsRejected counts a report turned away because the session was busy
func IncrementReportsRejected() {
	atomic.AddUint64(&globalMetrics.ReportsRejected, 1)
}

func IncrementChatMessages() {
	atomic.AddUint64(&globalMetrics.ChatMessages, 1)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"sessions_created":     atomic.LoadUint64(&globalMetrics.SessionsCreated),
		"sessions_ended":       atomic.LoadUint64(&globalMetrics.SessionsEnded),
		"reports_submitted":    atomic.LoadUint64(&globalMetrics.ReportsSubmitted),
		"reports_rejected":     atomic.LoadUint64(&globalMetrics.ReportsRejected),
		"chat_messages":        atomic.LoadUint64(&globalMetrics.ChatMessages),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON. gauges are sampled on every call.
func MetricsHandler(gauges map[string]func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := GetMetrics()
		for name, fn := range gauges {
			out[name] = fn()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

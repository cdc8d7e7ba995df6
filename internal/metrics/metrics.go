// Package metrics defines the prometheus collectors shared by the API and worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the application's collectors.
type Metrics struct {
	ReminderScans   *prometheus.CounterVec
	RemindersSent   prometheus.Counter
	ReminderSkipped *prometheus.CounterVec
	StorageErrors   *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New creates collectors and registers them on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReminderScans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tuition_reminder_scans_total",
			Help: "Reminder scans by result.",
		}, []string{"result"}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tuition_reminders_sent_total",
			Help: "Reminders handed to the notifier.",
		}),
		ReminderSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tuition_reminders_skipped_total",
			Help: "Reminders not sent, by reason.",
		}, []string{"reason"}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tuition_storage_errors_total",
			Help: "Storage collaborator failures by operation.",
		}, []string{"op"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tuition_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tuition_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	if reg != nil {
		reg.MustRegister(m.ReminderScans, m.RemindersSent, m.ReminderSkipped, m.StorageErrors, m.HTTPRequests, m.HTTPDuration)
	}
	return m
}

package reminder

import (
	"context"
	"log/slog"
	"time"

	"tuition/internal/metrics"
	"tuition/internal/notify"
	"tuition/internal/schedule"
)

// OccurrenceSource lists the scheduled classes for a weekday.
type OccurrenceSource interface {
	Occurrences(ctx context.Context, day schedule.Weekday) ([]Occurrence, error)
}

// Scanner runs the reminder check on every tick.
type Scanner struct {
	source   OccurrenceSource
	notifier notify.Notifier
	sent     SentSet
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithSentSet enables once-only delivery across overlapping scans.
func WithSentSet(s SentSet) Option { return func(sc *Scanner) { sc.sent = s } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(sc *Scanner) { sc.logger = l } }

// WithMetrics sets the collectors.
func WithMetrics(m *metrics.Metrics) Option { return func(sc *Scanner) { sc.metrics = m } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(sc *Scanner) { sc.now = now } }

// NewScanner creates a scanner reading from source and sending to notifier.
func NewScanner(source OccurrenceSource, notifier notify.Notifier, opts ...Option) *Scanner {
	s := &Scanner{
		source:   source,
		notifier: notifier,
		logger:   slog.Default(),
		metrics:  metrics.New(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick sends the reminders due at now and returns how many were sent.
// A storage failure makes the tick a no-op.
func (s *Scanner) Tick(ctx context.Context, now time.Time) int {
	occs, err := s.source.Occurrences(ctx, schedule.WeekdayOf(now))
	if err != nil {
		s.logger.Error("reminder scan skipped", "err", err)
		s.metrics.ReminderScans.WithLabelValues("storage_error").Inc()
		s.metrics.StorageErrors.WithLabelValues("schedules_for_weekday").Inc()
		return 0
	}
	s.metrics.ReminderScans.WithLabelValues("ok").Inc()

	sent := 0
	for _, r := range Due(now, occs) {
		if s.sent != nil {
			fresh, err := s.sent.MarkSent(ctx, r)
			if err != nil {
				// without the set we fall back to the window alone
				s.logger.Warn("reminder sent-set unavailable", "err", err)
			} else if !fresh {
				s.metrics.ReminderSkipped.WithLabelValues("already_sent").Inc()
				continue
			}
		}
		if err := s.notifier.Notify(ctx, r.Title(), r.Message()); err != nil {
			s.logger.Error("reminder notify failed", "student", r.StudentName, "subject", r.Subject, "err", err)
			s.metrics.ReminderSkipped.WithLabelValues("notify_error").Inc()
			continue
		}
		s.logger.Info("reminder sent", "student", r.StudentName, "subject", r.Subject, "class_at", r.ClassAt)
		s.metrics.RemindersSent.Inc()
		sent++
	}
	return sent
}

// Run ticks every interval until ctx is done.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = Window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("reminder scanner started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scanner stopped")
			return
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

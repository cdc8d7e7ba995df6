// Package notify delivers reminder notifications. Delivery is fire-and-forget:
// callers log failures and move on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tuition/internal/queue"
)

// Notifier shows a notification to the operator.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Payload is the wire shape of a notification.
type Payload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, title, message string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", "title", title, "message", message)
	return nil
}

// Webhook posts notifications as JSON to a URL.
type Webhook struct {
	URL  string
	HTTP *http.Client
}

// NewWebhook creates a webhook notifier with a short timeout.
func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

func (w *Webhook) Notify(ctx context.Context, title, message string) error {
	body, err := json.Marshal(Payload{Title: title, Message: message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook error %s: %s", resp.Status, string(b))
	}
	return nil
}

// MessageType tags notification messages on the queue.
const MessageType = "notification"

// Queued publishes notifications for a delivery worker.
type Queued struct {
	Queue queue.Queue
}

func (n Queued) Notify(ctx context.Context, title, message string) error {
	body, err := json.Marshal(Payload{Title: title, Message: message})
	if err != nil {
		return err
	}
	return n.Queue.Publish(ctx, queue.Message{Type: MessageType, Body: body})
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deliver drains notification messages from q into sink until ctx is done.
func Deliver(ctx context.Context, q queue.Queue, sink Notifier, logger *slog.Logger) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	for msg := range messages {
		if msg.Type != MessageType {
			continue
		}
		var p Payload
		if err := json.Unmarshal(msg.Body, &p); err != nil {
			logger.Warn("dropping malformed notification", "err", err)
			continue
		}
		if err := sink.Notify(ctx, p.Title, p.Message); err != nil {
			logger.Error("notification delivery failed", "title", p.Title, "err", err)
		}
	}
	return nil
}

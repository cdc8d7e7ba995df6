package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuition/internal/queue"
)

type capture struct {
	mu   sync.Mutex
	got  []Payload
	fail bool
}

func (c *capture) Notify(_ context.Context, title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("sink down")
	}
	c.got = append(c.got, Payload{Title: title, Message: message})
	return nil
}

func (c *capture) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func TestWebhook(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	require.NoError(t, NewWebhook(srv.URL).Notify(context.Background(), "Class in 30 Mins!", "Asha: Maths at 4:00 PM"))
	assert.Equal(t, Payload{Title: "Class in 30 Mins!", Message: "Asha: Maths at 4:00 PM"}, got)
}

func TestWebhook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	assert.Error(t, NewWebhook(srv.URL).Notify(context.Background(), "t", "m"))
}

func TestMulti_JoinsErrors(t *testing.T) {
	ok, bad := &capture{}, &capture{fail: true}
	err := Multi{bad, ok}.Notify(context.Background(), "t", "m")
	assert.Error(t, err)
	assert.Equal(t, 1, ok.len(), "a failing sink does not block the others")
}

func TestQueuedDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewInMemory(8)
	require.NoError(t, Queued{Queue: q}.Notify(ctx, "Class in 30 Mins!", "Asha: Maths at 4:00 PM"))
	require.NoError(t, q.Publish(ctx, queue.Message{Type: "other", Body: []byte("x")}))
	require.NoError(t, q.Publish(ctx, queue.Message{Type: MessageType, Body: []byte("{bad")}))

	sink := &capture{}
	done := make(chan error, 1)
	go func() { done <- Deliver(ctx, q, sink, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	assert.Eventually(t, func() bool { return sink.len() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, "Asha: Maths at 4:00 PM", sink.got[0].Message)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}.Notify(context.Background(), "t", "m"))
}

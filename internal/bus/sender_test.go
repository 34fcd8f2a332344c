package bus

import (
	"context"
	"sync"
	"testing"
	"time"
)

type captureSender struct {
	mu   sync.Mutex
	sent []OutboundMessage
}

func (c *captureSender) Send(ctx context.Context, msg OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestRateLimitedSenderBurst(t *testing.T) {
	inner := &captureSender{}
	s := NewRateLimitedSender(inner, 1, 2) // 1/min, burst 2

	ctx := context.Background()
	msg := OutboundMessage{Phone: "+1555", Channel: ChannelSMS, Body: "hi"}
	for i := 0; i < 2; i++ {
		if err := s.Send(ctx, msg); err != nil {
			t.Fatal(err)
		}
	}
	if inner.count() != 2 {
		t.Fatalf("burst sends = %d, want 2", inner.count())
	}

	// Third send is over the burst; with a tight deadline it must not go out.
	tight, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := s.Send(tight, msg); err == nil {
		t.Error("over-budget send should block until deadline")
	}
	if inner.count() != 2 {
		t.Errorf("sends = %d after rate limit, want 2", inner.count())
	}
}

func TestRateLimitedSenderPerUser(t *testing.T) {
	inner := &captureSender{}
	s := NewRateLimitedSender(inner, 1, 1)

	ctx := context.Background()
	if err := s.Send(ctx, OutboundMessage{Phone: "+1555", Body: "a"}); err != nil {
		t.Fatal(err)
	}
	// A different recipient has its own bucket.
	if err := s.Send(ctx, OutboundMessage{Phone: "+1666", Body: "b"}); err != nil {
		t.Fatal(err)
	}
	if inner.count() != 2 {
		t.Errorf("sends = %d, want 2 (independent per-user buckets)", inner.count())
	}
}

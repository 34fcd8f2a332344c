package bus

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// Sender delivers outbound messages. Implementations wrap a carrier API;
// LogSender is used when no transport is configured.
type Sender interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// LogSender logs outbound messages instead of delivering them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg OutboundMessage) error {
	slog.Info("outbound message (log sender)",
		"phone", msg.Phone, "channel", msg.Channel, "len", len(msg.Body))
	return nil
}

// RateLimitedSender wraps a Sender with a per-user token bucket so a
// runaway job or watcher cannot flood a single recipient.
type RateLimitedSender struct {
	inner Sender
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimitedSender allows perMinute sends per user with the given burst.
func NewRateLimitedSender(inner Sender, perMinute float64, burst int) *RateLimitedSender {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedSender{
		inner:    inner,
		limit:    rate.Limit(perMinute / 60.0),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Send blocks until the recipient's limiter admits the message, then
// delegates to the wrapped sender.
func (s *RateLimitedSender) Send(ctx context.Context, msg OutboundMessage) error {
	if err := s.limiter(msg.Phone).Wait(ctx); err != nil {
		return err
	}
	return s.inner.Send(ctx, msg)
}

func (s *RateLimitedSender) limiter(phone string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[phone]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[phone] = l
	}
	return l
}

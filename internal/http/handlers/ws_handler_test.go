package handlers

import (
	"context"
	"testing"

	"github.com/ecnal/moxiworks-platform/internal/events"
	"go.uber.org/zap"
)

type captureSubscriber struct {
	stream  string
	handler func(events.Event)
}

func (s *captureSubscriber) Subscribe(ctx context.Context, stream string, handler func(events.Event)) error {
	s.stream = stream
	s.handler = handler
	return nil
}

func TestWSHub_StartSubscribesToActionLogStream(t *testing.T) {
	sub := &captureSubscriber{}
	hub := NewWSHub("secret", sub, zap.NewNop())

	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.stream != events.StreamActionLog {
		t.Errorf("stream = %q, want %q", sub.stream, events.StreamActionLog)
	}

	// No sockets registered: delivering an event must be a no-op.
	sub.handler(events.NewEvent(events.EventActionLogCreated, nil))
	if hub.Connections() != 0 {
		t.Errorf("Connections() = %d", hub.Connections())
	}
}

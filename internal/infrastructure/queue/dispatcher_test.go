package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aidattendance/portal/internal/core/domain"
)

type collectingSink struct {
	mu   sync.Mutex
	got  []domain.Notification
	done chan struct{}
	want int
}

func (s *collectingSink) Notify(_ context.Context, msg domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, msg)
	if len(s.got) == s.want {
		close(s.done)
	}
	return nil
}

func TestDispatcher_DeliversInOrderPerRecipient(t *testing.T) {
	sink := &collectingSink{done: make(chan struct{}), want: 20}
	d := NewDispatcher(3, sink, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 10; i++ {
		for _, r := range []string{"a@b.c", "+15550001111"} {
			if err := d.Notify(ctx, domain.Notification{Recipient: r, Body: string(rune('0' + i))}); err != nil {
				t.Fatalf("Notify returned error: %v", err)
			}
		}
	}

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("notifications not delivered")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	last := map[string]string{}
	for _, n := range sink.got {
		if prev, ok := last[n.Recipient]; ok && n.Body <= prev {
			t.Fatalf("out of order for %s: %s after %s", n.Recipient, n.Body, prev)
		}
		last[n.Recipient] = n.Body
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &collectingSink{}, zerolog.Nop())
	for _, r := range []string{"a", "b", "someone@example.com"} {
		i := d.shardIndex(r)
		if i < 0 || i >= 8 || d.shardIndex(r) != i {
			t.Fatalf("unstable shard for %s: %d", r, i)
		}
	}
}

func TestDispatcher_QueueFull(t *testing.T) {
	d := NewDispatcher(1, &collectingSink{}, zerolog.Nop())
	msg := domain.Notification{Recipient: "a@b.c"}
	for i := 0; i < channelBuffer; i++ {
		if err := d.Notify(context.Background(), msg); err != nil {
			t.Fatalf("Notify %d returned error: %v", i, err)
		}
	}
	if err := d.Notify(context.Background(), msg); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

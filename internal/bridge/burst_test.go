package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory MessageSource that records subscription
// lifecycle so tests can assert the listener is always removed.
type fakeSource struct {
	mu       sync.Mutex
	handlers map[int]func(MessageEvent)
	next     int
	removed  int
}

func newFakeSource() *fakeSource {
	return &fakeSource{handlers: make(map[int]func(MessageEvent))}
}

func (s *fakeSource) SubscribeMessages(handler func(MessageEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.handlers[id] = handler
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
		s.removed++
	}
}

func (s *fakeSource) emit(ev MessageEvent) {
	s.mu.Lock()
	handlers := make([]func(MessageEvent), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (s *fakeSource) removedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

func (s *fakeSource) subscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

func TestCollector_IdleWindowRunsToTotal(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	collector := NewCollector(nil, source, 20*time.Millisecond, 60*time.Millisecond)

	start := time.Now()
	result := collector.Collect(context.Background(), "alice", "c1")

	assert.Empty(t, result.Locators)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, 1, source.removedCount())
	assert.Zero(t, source.subscriberCount())
}

func TestCollector_AbsorbsFollowUpAttachments(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	collector := NewCollector(nil, source, 30*time.Millisecond, 500*time.Millisecond)

	done := make(chan BurstResult, 1)
	go func() {
		done <- collector.Collect(context.Background(), "alice", "c1")
	}()

	time.Sleep(10 * time.Millisecond)
	source.emit(MessageEvent{
		MessageID:   "m2",
		ChannelID:   "c1",
		AuthorID:    "alice",
		Attachments: []string{"https://cdn.example.com/two.png"},
	})
	source.emit(MessageEvent{
		MessageID:   "m3",
		ChannelID:   "c1",
		AuthorID:    "alice",
		Attachments: []string{"https://cdn.example.com/three.png"},
	})

	select {
	case result := <-done:
		assert.Equal(t, []string{"https://cdn.example.com/two.png", "https://cdn.example.com/three.png"}, result.Locators)
		assert.Equal(t, []string{"m2", "m3"}, result.Messages)
	case <-time.After(time.Second):
		t.Fatal("collector never closed")
	}
	assert.Equal(t, 1, source.removedCount())
}

func TestCollector_ClosesOnDisqualifyingFollowUp(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	collector := NewCollector(nil, source, 50*time.Millisecond, 2*time.Second)

	done := make(chan BurstResult, 1)
	go func() {
		done <- collector.Collect(context.Background(), "alice", "c1")
	}()

	time.Sleep(10 * time.Millisecond)
	source.emit(MessageEvent{MessageID: "m2", ChannelID: "c1", AuthorID: "alice", Content: "unrelated chatter"})

	select {
	case result := <-done:
		assert.Empty(t, result.Locators)
	case <-time.After(time.Second):
		t.Fatal("plain follow-up should close the window immediately")
	}
}

func TestCollector_IgnoresOtherAuthorsChannelsAndBots(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	collector := NewCollector(nil, source, 20*time.Millisecond, 80*time.Millisecond)

	done := make(chan BurstResult, 1)
	go func() {
		done <- collector.Collect(context.Background(), "alice", "c1")
	}()

	time.Sleep(10 * time.Millisecond)
	source.emit(MessageEvent{MessageID: "m2", ChannelID: "c1", AuthorID: "bob", Attachments: []string{"https://x/1.png"}})
	source.emit(MessageEvent{MessageID: "m3", ChannelID: "c2", AuthorID: "alice", Attachments: []string{"https://x/2.png"}})
	source.emit(MessageEvent{MessageID: "m4", ChannelID: "c1", AuthorID: "alice", Bot: true, Attachments: []string{"https://x/3.png"}})

	result := <-done
	assert.Empty(t, result.Locators)
}

func TestCollector_ContextCancelReturnsEarly(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	collector := NewCollector(nil, source, time.Second, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan BurstResult, 1)
	go func() {
		done <- collector.Collect(ctx, "alice", "c1")
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector ignored context cancellation")
	}
	require.Eventually(t, func() bool { return source.subscriberCount() == 0 }, time.Second, 5*time.Millisecond)
}

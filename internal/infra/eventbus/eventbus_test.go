package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()

	bus := New()
	ch := bus.Subscribe("conversation.message")

	bus.Publish("conversation.message", "conv-1")

	select {
	case evt := <-ch:
		if evt.Topic != "conversation.message" {
			t.Fatalf("expected topic conversation.message, got %q", evt.Topic)
		}
		if evt.Payload != "conv-1" {
			t.Fatalf("expected payload conv-1, got %v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("expected event, got none")
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	t.Parallel()

	bus := New()
	// Must not block or panic.
	bus.Publish("conversation.created", "conv-1")
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	bus := New()
	ch := bus.Subscribe("conversation.message")

	// Overfill the buffer; the extra publishes must not block.
	for i := 0; i < defaultBufferSize+10; i++ {
		bus.Publish("conversation.message", i)
	}

	if got := len(ch); got != defaultBufferSize {
		t.Fatalf("expected %d buffered events, got %d", defaultBufferSize, got)
	}
}

func TestSubscribersAreIndependentPerTopic(t *testing.T) {
	t.Parallel()

	bus := New()
	created := bus.Subscribe("conversation.created")
	selected := bus.Subscribe("conversation.selected")

	bus.Publish("conversation.created", "conv-1")

	if got := len(created); got != 1 {
		t.Fatalf("expected 1 event on created, got %d", got)
	}
	if got := len(selected); got != 0 {
		t.Fatalf("expected 0 events on selected, got %d", got)
	}
}

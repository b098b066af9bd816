package sse

import (
	"fmt"
	"testing"
	"time"

	"github.com/tandemlab/converse/logger"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.NewDefault("sse-test"))
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, sub *Subscriber) []byte {
	t.Helper()
	select {
	case data, ok := <-sub.Events():
		if !ok {
			t.Fatal("events channel closed")
		}
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func waitForCount(t *testing.T, hub *Hub, conversationID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount(conversationID) == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("subscriber count for %s never reached %d", conversationID, want)
}

func TestPublishReachesConversationSubscribers(t *testing.T) {
	hub := startHub(t)

	a1 := NewSubscriber("a1", "conv-a")
	a2 := NewSubscriber("a2", "conv-a")
	b1 := NewSubscriber("b1", "conv-b")
	hub.Register(a1)
	hub.Register(a2)
	hub.Register(b1)
	waitForCount(t, hub, "conv-a", 2)
	waitForCount(t, hub, "conv-b", 1)

	hub.Publish("conv-a", []byte("line one"))

	if got := string(receive(t, a1)); got != "line one" {
		t.Errorf("a1 received %q", got)
	}
	if got := string(receive(t, a2)); got != "line one" {
		t.Errorf("a2 received %q", got)
	}

	select {
	case data := <-b1.Events():
		t.Errorf("b1 received %q for another conversation", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterClosesEvents(t *testing.T) {
	hub := startHub(t)

	sub := NewSubscriber("s1", "conv-a")
	hub.Register(sub)
	waitForCount(t, hub, "conv-a", 1)

	hub.Unregister(sub)
	waitForCount(t, hub, "conv-a", 0)

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Fatal("events channel never closed")
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := startHub(t)

	sub := NewSubscriber("slow", "conv-a")
	hub.Register(sub)
	waitForCount(t, hub, "conv-a", 1)

	// Fill the subscriber's queue without draining it, then publish one
	// more. Publish must return promptly and the overflow is dropped.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			hub.Publish("conv-a", []byte(fmt.Sprintf("event %d", i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestStopClosesAllSubscribers(t *testing.T) {
	hub := NewHub(logger.NewDefault("sse-test"))
	go hub.Run()

	sub := NewSubscriber("s1", "conv-a")
	hub.Register(sub)
	waitForCount(t, hub, "conv-a", 1)

	hub.Stop()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("expected closed channel after stop")
		}
	case <-time.After(time.Second):
		t.Fatal("events channel never closed after stop")
	}

	// A second stop must not panic.
	hub.Stop()
}

func TestPublishAfterStopIsSafe(t *testing.T) {
	hub := NewHub(logger.NewDefault("sse-test"))
	go hub.Run()
	hub.Stop()

	// Give the run loop a moment to exit.
	time.Sleep(10 * time.Millisecond)
	hub.Publish("conv-a", []byte("late event"))
}

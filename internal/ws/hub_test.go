package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"kasa-pos/internal/event"

	"go.uber.org/zap"
)

func TestPublishQueuesJSON(t *testing.T) {
	h := NewHub(zap.NewNop())
	h.Publish(context.Background(), event.Event{Type: event.SaleCreated, Action: "checkout", Key: "s-1"})

	select {
	case msg := <-h.Broadcast:
		var evt event.Event
		if err := json.Unmarshal(msg, &evt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if evt.Type != event.SaleCreated || evt.Key != "s-1" {
			t.Fatalf("unexpected event %+v", evt)
		}
	default:
		t.Fatal("event was not queued")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	h := NewHub(zap.NewNop())
	for i := 0; i < broadcastBuffer+10; i++ {
		h.Publish(context.Background(), event.Event{Type: event.StockUpdate})
	}
	if got := len(h.Broadcast); got != broadcastBuffer {
		t.Fatalf("buffer len = %d, want %d", got, broadcastBuffer)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
	if h.ClientCount() != 0 {
		t.Fatal("clients should be cleared")
	}
}

func TestRegisterAfterStopDoesNotBlock(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	returned := make(chan bool, 1)
	go func() {
		ok := h.register(nil)
		h.unregister(nil)
		returned <- ok
	}()
	select {
	case ok := <-returned:
		if ok {
			t.Fatal("register should fail on a stopped hub")
		}
	case <-time.After(time.Second):
		t.Fatal("register/unregister blocked after the hub stopped")
	}
}

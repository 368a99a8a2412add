// Package event carries catalog and sales changes to live subscribers.
package event

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Type string

const (
	StockUpdate     Type = "stock_update"
	SaleCreated     Type = "sale_created"
	SaleDeleted     Type = "sale_deleted"
	ThresholdUpdate Type = "threshold_update"
)

type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Event struct {
	Type    Type        `json:"type"`
	Action  string      `json:"action"`
	Key     string      `json:"key"` // barcode, sale id or category
	Data    interface{} `json:"data,omitempty"`
	User    *Actor      `json:"user,omitempty"`
	Message string      `json:"message,omitempty"`
	At      time.Time   `json:"at"`
}

// Publisher delivers events after the change is committed. Implementations
// must not block the caller on slow subscribers.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

type fanout struct {
	pubs []Publisher
}

// Fanout sends every event to each publisher in order.
func Fanout(pubs ...Publisher) Publisher {
	return &fanout{pubs: pubs}
}

func (f *fanout) Publish(ctx context.Context, evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	for _, p := range f.pubs {
		p.Publish(ctx, evt)
	}
}

// Nop drops events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Recorder keeps events in memory; handy in tests and for debugging.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, evt Event) {
	r.Events = append(r.Events, evt)
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type logPublisher struct {
	log *zap.Logger
}

// Log writes a debug line per event.
func Log(log *zap.Logger) Publisher {
	return &logPublisher{log: log}
}

func (p *logPublisher) Publish(_ context.Context, evt Event) {
	p.log.Debug("event published",
		zap.String("type", string(evt.Type)),
		zap.String("action", evt.Action),
		zap.String("key", evt.Key),
	)
}

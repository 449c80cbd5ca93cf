package alerts

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const subscriberBuffer = 64

// Handler receives dispatched events. Handlers run on a per-subscriber
// goroutine; a slow handler backs up only its own buffer.
type Handler func(Event)

type subscriber struct {
	kind EventKind
	ch   chan Event
	done chan struct{}
}

// Dispatcher fans events out to subscribers without ever blocking the
// publisher. Each subscriber drains a buffered channel on its own goroutine;
// when the buffer is full the event is dropped for that subscriber and
// logged.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   map[EventKind][]*subscriber
	closed bool
	logger *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		subs:   make(map[EventKind][]*subscriber),
		logger: logger,
	}
}

// Subscribe registers a handler for one event kind and returns an
// unsubscribe function.
func (d *Dispatcher) Subscribe(kind EventKind, h Handler) func() {
	sub := &subscriber{
		kind: kind,
		ch:   make(chan Event, subscriberBuffer),
		done: make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case ev := <-sub.ch:
				h(ev)
			}
		}
	}()

	d.mu.Lock()
	d.subs[kind] = append(d.subs[kind], sub)
	d.mu.Unlock()

	return func() { d.remove(sub) }
}

// SubscribeAll registers a handler for every event kind.
func (d *Dispatcher) SubscribeAll(h Handler) func() {
	cancels := make([]func(), 0, len(Kinds()))
	for _, kind := range Kinds() {
		cancels = append(cancels, d.Subscribe(kind, h))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func (d *Dispatcher) remove(sub *subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.subs[sub.kind]
	for i, s := range subs {
		if s == sub {
			d.subs[sub.kind] = append(subs[:i], subs[i+1:]...)
			close(sub.done)
			return
		}
	}
}

// Close stops all subscriber goroutines. Publish becomes a no-op.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	for _, subs := range d.subs {
		for _, sub := range subs {
			close(sub.done)
		}
	}
	d.subs = make(map[EventKind][]*subscriber)
}

func (d *Dispatcher) publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	d.mu.RLock()
	subs := d.subs[ev.Kind]
	delivered := 0
	for _, sub := range subs {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			// Subscriber buffer full, drop rather than stall the pass.
			d.logger.Warn("subscriber buffer full, dropping event",
				zap.String("kind", string(ev.Kind)),
			)
		}
	}
	d.mu.RUnlock()

	if delivered > 0 {
		d.logger.Debug("event dispatched",
			zap.String("kind", string(ev.Kind)),
			zap.Int("subscribers", delivered),
		)
	}
}

// PublishPositionRisk dispatches one elevated assessment.
func (d *Dispatcher) PublishPositionRisk(a PositionRiskAlert) {
	d.publish(Event{Kind: EventPositionRisk, PositionRisk: &a})
}

// PublishPortfolioLimit dispatches a portfolio bound breach.
func (d *Dispatcher) PublishPortfolioLimit(v PortfolioLimitViolation) {
	d.publish(Event{Kind: EventPortfolioLimit, PortfolioLimit: &v})
}

// PublishAutoClose dispatches an auto-close trigger.
func (d *Dispatcher) PublishAutoClose(t AutoCloseTriggered) {
	d.publish(Event{Kind: EventAutoClose, AutoClose: &t})
}

// PublishAutoHedge dispatches an auto-hedge trigger.
func (d *Dispatcher) PublishAutoHedge(t AutoHedgeTriggered) {
	d.publish(Event{Kind: EventAutoHedge, AutoHedge: &t})
}

// PublishLifecycle dispatches a monitoring start/stop marker.
func (d *Dispatcher) PublishLifecycle(kind EventKind) {
	d.publish(Event{Kind: kind})
}

package notify

import (
	"fmt"
	"reflect"
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

const (
	// TopicNotify carries Event values.
	TopicNotify = "imgconv:notify"
	// TopicBatch carries batch change values published by the batch package.
	TopicBatch = "imgconv:batch"
)

// Bus fans events out to subscribers by topic.
//
// Publishing only enqueues. A single delivery goroutine drains the queue in
// publish order, so handlers may call back into whatever published the event
// (including publishing again). Handlers must not call Flush or subscribe
// to a topic nobody has subscribed to before.
type Bus struct {
	bus evbus.Bus

	routeMu sync.Mutex

	mu       sync.Mutex
	idle     *sync.Cond
	subs     map[string][]subscription
	topics   map[string]bool
	nextID   uint64
	queue    []delivery
	draining bool
}

type subscription struct {
	id uint64
	fn reflect.Value
}

type delivery struct {
	topic   string
	payload interface{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	b := &Bus{
		bus:    evbus.New(),
		subs:   make(map[string][]subscription),
		topics: make(map[string]bool),
	}
	b.idle = sync.NewCond(&b.mu)
	// Known topics are routed up front so handlers can subscribe to them
	// while a delivery is running.
	for _, topic := range []string{TopicNotify, TopicBatch} {
		if err := b.route(topic); err != nil {
			panic(err)
		}
	}
	return b
}

// Notify publishes e on TopicNotify.
func (b *Bus) Notify(e Event) {
	b.Publish(TopicNotify, e)
}

// OnNotify subscribes fn to TopicNotify and returns a function that
// removes the subscription.
func (b *Bus) OnNotify(fn func(Event)) (func(), error) {
	return b.Subscribe(TopicNotify, fn)
}

// Publish queues payload for every handler of topic.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.Lock()
	b.queue = append(b.queue, delivery{topic: topic, payload: payload})
	if !b.draining {
		b.draining = true
		go b.drain()
	}
	b.mu.Unlock()
}

// Flush blocks until every queued event has been delivered.
func (b *Bus) Flush() {
	b.mu.Lock()
	for b.draining {
		b.idle.Wait()
	}
	b.mu.Unlock()
}

// Subscribe registers fn, a func taking one argument whose type matches
// what is published on topic. Each call gets its own subscription, so the
// same function may be subscribed twice and removed independently.
func (b *Bus) Subscribe(topic string, fn interface{}) (func(), error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.Type().NumIn() != 1 {
		return nil, fmt.Errorf("notify: %T is not a single-argument func", fn)
	}

	if err := b.route(topic); err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: v})
	b.mu.Unlock()

	return func() { b.unsubscribe(topic, id) }, nil
}

// HasSubscribers reports whether anything listens on topic.
func (b *Bus) HasSubscribers(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic]) > 0
}

func (b *Bus) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// route registers the fan-out handler for topic with the underlying bus.
// b.mu is not held here: the delivery goroutine takes it while the
// underlying bus holds its own lock.
func (b *Bus) route(topic string) error {
	b.routeMu.Lock()
	defer b.routeMu.Unlock()

	b.mu.Lock()
	routed := b.topics[topic]
	b.mu.Unlock()
	if routed {
		return nil
	}
	if err := b.bus.Subscribe(topic, func(payload interface{}) { b.dispatch(topic, payload) }); err != nil {
		return err
	}
	b.mu.Lock()
	b.topics[topic] = true
	b.mu.Unlock()
	return nil
}

func (b *Bus) drain() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.draining = false
			b.idle.Broadcast()
			b.mu.Unlock()
			return
		}
		d := b.queue[0]
		b.queue[0] = delivery{}
		b.queue = b.queue[1:]
		b.mu.Unlock()

		b.bus.Publish(d.topic, d.payload)
	}
}

func (b *Bus) dispatch(topic string, payload interface{}) {
	b.mu.Lock()
	subs := append([]subscription(nil), b.subs[topic]...)
	b.mu.Unlock()

	for _, s := range subs {
		in := s.fn.Type().In(0)
		var arg reflect.Value
		if payload == nil {
			arg = reflect.Zero(in)
		} else {
			arg = reflect.ValueOf(payload)
			if !arg.Type().AssignableTo(in) {
				continue
			}
		}
		s.fn.Call([]reflect.Value{arg})
	}
}

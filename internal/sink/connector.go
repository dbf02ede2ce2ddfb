package sink

import "sync"

// Connector is an observable boolean level shared between a producer and any
// number of subscribers.
type Connector struct {
	// mu guards value and the subscriber set.
	mu sync.RWMutex
	// value is the last published level.
	value bool
	// subs maps subscription ids to their delivery channels.
	subs map[uint64]chan bool
	// nextID is the id handed to the next subscriber.
	nextID uint64
	// closed rejects new subscriptions once set.
	closed bool
}

// NewConnector returns a connector holding initial.
func NewConnector(initial bool) *Connector {
	return &Connector{
		value: initial,
		subs:  make(map[uint64]chan bool),
	}
}

// Read returns the current level.
func (c *Connector) Read() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.value
}

// Publish stores value and delivers it to every subscriber. Publish never
// blocks: a subscriber whose buffer is full loses its oldest pending value.
func (c *Connector) Publish(value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = value

	for _, ch := range c.subs {
		select {
		case ch <- value:
			continue
		default:
		}

		// Only Publish sends, under c.mu, so one receive frees a slot.
		select {
		case <-ch:
		default:
		}

		ch <- value
	}
}

// Subscribe registers a subscriber with the given buffer size (at least 1).
// The returned cancel function unregisters it and closes the channel; it is
// safe to call more than once. Subscribing to a closed connector yields a
// closed channel.
func (c *Connector) Subscribe(buffer int) (<-chan bool, func()) {
	if buffer < 1 {
		buffer = 1
	}

	ch := make(chan bool, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		close(ch)

		return ch, func() {}
	}

	id := c.nextID
	c.nextID++
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		// Close may have released the channel already.
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}

	return ch, cancel
}

// Close ends every subscription. The level stays readable and publishable.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}

	return nil
}

// Subscribers returns the number of active subscriptions.
func (c *Connector) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.subs)
}

package realtime

import (
	"errors"
	"sync"
)

type emitted struct {
	event   string
	payload interface{}
}

type fakeConn struct {
	id    string
	fail  bool
	panic bool

	mu   sync.Mutex
	sent []emitted
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, payload interface{}) error {
	if c.panic {
		panic("write on closed socket")
	}
	if c.fail {
		return errors.New("broken pipe")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, emitted{event: event, payload: payload})
	return nil
}

func (c *fakeConn) events() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emitted(nil), c.sent...)
}

func (c *fakeConn) count(event string) int {
	n := 0
	for _, e := range c.events() {
		if e.event == event {
			n++
		}
	}
	return n
}

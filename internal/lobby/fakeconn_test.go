package lobby

import "sync"

// fakeConn is an in-memory transport.Conn used by lobby package tests so
// they can assert on exactly what was sent without a real socket.
type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{}
}

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosedFake
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	c.sent = append(c.sent, cp)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "fake" }

func (c *fakeConn) frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

type fakeConnClosedError struct{}

func (fakeConnClosedError) Error() string { return "fakeconn: closed" }

var errClosedFake = fakeConnClosedError{}

// Package transport adapts a raw net.Conn into the Conn interface the lobby
// package sends frames through, with a buffered write pump so one slow
// client blocks the goroutine serving another connection only once its
// outbound queue is full.
package transport

import (
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Conn is the network abstraction the lobby package sends frames through.
// It mirrors the teacher's PlayerConnection interface, generalized from
// WebSocket frames to raw length-prefixed TCP frames.
type Conn interface {
	Send(frame []byte) error
	Close() error
	RemoteAddr() string
}

// sendBufferSize bounds how many outbound frames may queue before Send
// starts blocking its caller, per the back-pressure model in §5.
const sendBufferSize = 256

// TCPConn wraps a net.Conn with a buffered outbound queue drained by its own
// goroutine, so a write that blocks on one slow client stalls another
// connection's handler only after sendBufferSize frames have queued up.
type TCPConn struct {
	conn      net.Conn
	log       zerolog.Logger
	sendChan  chan []byte
	done      chan struct{}
	closeVal  chan struct{}
	closeOnce sync.Once
}

// NewTCPConn wraps conn, configures keep-alive and Nagle per §6, and starts
// the write pump goroutine. Call Close to stop it.
func NewTCPConn(conn net.Conn, log zerolog.Logger) *TCPConn {
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
		tcp.SetKeepAlive(true)
		tcp.SetKeepAlivePeriod(30 * time.Second)
	}

	c := &TCPConn{
		conn:     conn,
		log:      log,
		sendChan: make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		closeVal: make(chan struct{}),
	}

	go c.writePump()
	return c
}

// Send queues a frame for delivery. It blocks if the outbound buffer is
// full rather than dropping gameplay-critical frames, since unlike the
// racing game's state broadcasts, lobby and battle commands are not safe
// to silently skip.
func (c *TCPConn) Send(frame []byte) error {
	select {
	case <-c.done:
		return &ClosedError{}
	default:
	}
	select {
	case c.sendChan <- frame:
		return nil
	case <-c.done:
		return &ClosedError{}
	}
}

// Close stops the write pump and closes the underlying socket. Safe to
// call multiple times.
func (c *TCPConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// RemoteAddr returns the peer address for logging.
func (c *TCPConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// writePump drains queued frames to the socket. It is the only goroutine
// that writes to conn, so concurrent Send calls never interleave partial
// writes.
func (c *TCPConn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.sendChan:
			if _, err := c.conn.Write(frame); err != nil {
				c.log.Debug().Err(err).Str("remote", c.RemoteAddr()).Msg("write failed")
				c.Close()
				return
			}
		}
	}
}

// ReadLoop reads raw bytes from the socket and invokes onChunk for each
// read, until the connection closes or errors. It blocks the calling
// goroutine — callers run it in its own goroutine per connection.
func (c *TCPConn) ReadLoop(onChunk func([]byte)) error {
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onChunk(chunk)
		}
		if err != nil {
			return err
		}
	}
}

// ClosedError is returned by Send once the connection has been closed.
type ClosedError struct{}

func (e *ClosedError) Error() string { return "transport: connection closed" }

package transport

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTCPConnSendDeliversBytes(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	conn := NewTCPConn(serverSide, zerolog.Nop())
	defer conn.Close()

	payload := []byte{0x01, 0x02, 0x03}
	if err := conn.Send(payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	buf := make([]byte, len(payload))
	clientSide.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := clientSide.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(buf, payload) {
		t.Errorf("got %v, want %v", buf, payload)
	}
}

func TestTCPConnReadLoopInvokesCallback(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	conn := NewTCPConn(serverSide, zerolog.Nop())
	defer conn.Close()

	received := make(chan []byte, 1)
	go conn.ReadLoop(func(chunk []byte) {
		cp := make([]byte, len(chunk))
		copy(cp, chunk)
		received <- cp
	})

	clientSide.Write([]byte{0xAA, 0xBB})

	select {
	case chunk := <-received:
		if !bytes.Equal(chunk, []byte{0xAA, 0xBB}) {
			t.Errorf("got %v", chunk)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ReadLoop callback")
	}
}

func TestTCPConnSendAfterCloseFails(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	conn := NewTCPConn(serverSide, zerolog.Nop())
	conn.Close()

	if err := conn.Send([]byte{0x01}); err == nil {
		t.Error("Send after Close should return an error")
	}
}

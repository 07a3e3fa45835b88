package lobby

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/endotermic/Dark-Colony-Server/internal/protocol"
	"github.com/endotermic/Dark-Colony-Server/internal/transport"
)

// ClientSession is per-connection state: §3 "Client session".
type ClientSession struct {
	ID   uint64
	Conn transport.Conn
	log  zerolog.Logger

	mu              sync.Mutex // guards the fields below
	roomID          int
	slot            uint8
	battleInitiated bool
	mapSent         bool
	outCounter      uint8
	battlePing      *battlePingState

	lastActivityNano atomic.Int64
	decoder          *protocol.Decoder
}

// newClientSession allocates a session bound to conn. roomID/slot are set
// once admission assigns them.
func newClientSession(id uint64, conn transport.Conn, log zerolog.Logger) *ClientSession {
	s := &ClientSession{
		ID:      id,
		Conn:    conn,
		log:     log,
		decoder: protocol.NewDecoder(),
	}
	s.Touch()
	return s
}

// Touch records inbound activity, resetting the idle-reap clock.
func (s *ClientSession) Touch() {
	s.lastActivityNano.Store(time.Now().UnixNano())
}

// IdleFor reports how long it has been since the last inbound byte.
func (s *ClientSession) IdleFor() time.Duration {
	last := time.Unix(0, s.lastActivityNano.Load())
	return time.Since(last)
}

// Send encodes payload as a frame using this connection's current counter
// nibble, advances the counter, and writes it. Per §5 the counter is only
// ever advanced here, under the session's own mutex.
func (s *ClientSession) Send(payload []byte) error {
	s.mu.Lock()
	counter := s.outCounter
	s.outCounter = protocol.NextCounter(counter)
	s.mu.Unlock()

	frame, err := protocol.EncodeFrame(payload, counter)
	if err != nil {
		s.log.Warn().Err(err).Uint64("client", s.ID).Msg("dropping overlong packet")
		return nil
	}
	return s.Conn.Send(frame)
}

// RoomID returns the room this session currently belongs to.
func (s *ClientSession) RoomID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Slot returns the slot index this session currently occupies.
func (s *ClientSession) Slot() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot
}

// setRoomSlot binds the session to a room and slot at admission time.
func (s *ClientSession) setRoomSlot(roomID int, slot uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
	s.slot = slot
}

// MapSent reports whether the join sequence (greeting/snapshot/map) has
// completed, gating lobby-ping delivery per §4.7.
func (s *ClientSession) MapSent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapSent
}

func (s *ClientSession) setMapSent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapSent = true
}

// BattleInitiated reports whether this client has sent begin_battle.
func (s *ClientSession) BattleInitiated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.battleInitiated
}

func (s *ClientSession) setBattleInitiated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battleInitiated = true
}

// counterSnapshot returns the session's current outbound counter without
// advancing it, used to seed a fresh battle-ping state's initialCounter.
func (s *ClientSession) counterSnapshot() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outCounter
}

package lobby

import (
	"sync"
	"time"

	"github.com/endotermic/Dark-Colony-Server/config"
	"github.com/endotermic/Dark-Colony-Server/internal/protocol"
)

// battlePingState is the per-client ping/echo state machine described in
// §4.5. Cancellation uses a generation counter (§9's option (b)): every
// scheduled timer captures the generation current at schedule time and
// no-ops if the state has moved on by the time it fires — covering both
// "echo arrived, timeout no longer relevant" and "client disconnected".
type battlePingState struct {
	mu             sync.Mutex
	generation     uint64
	sequence       uint32
	initialCounter uint32
	lastSend       time.Time
}

// beginBattlePing allocates battle-ping state for session and sends ping 0,
// per the begin_battle handler in §4.2/§4.5.
func (s *Server) beginBattlePing(session *ClientSession) {
	bp := &battlePingState{initialCounter: uint32(session.counterSnapshot())}

	session.mu.Lock()
	session.battlePing = bp
	session.mu.Unlock()

	s.fireBattlePing(session, bp, bp.generation, 0)
}

// fireBattlePing sends one ping (the given sequence number) if bp hasn't
// moved past expectGen, then arms the 5s timeout for its echo.
func (s *Server) fireBattlePing(session *ClientSession, bp *battlePingState, expectGen uint64, seq uint32) {
	bp.mu.Lock()
	if bp.generation != expectGen {
		bp.mu.Unlock()
		return
	}
	bp.sequence = seq
	bp.lastSend = time.Now()
	gen := bp.generation
	initialCounter := bp.initialCounter
	bp.mu.Unlock()

	if err := session.Send(protocol.BuildBattlePing1(seq, initialCounter)); err != nil {
		s.log.Debug().Err(err).Uint64("client", session.ID).Msg("battle ping send failed")
		return
	}

	time.AfterFunc(config.BattlePingTimeout, func() {
		s.onBattlePingTimeout(session, bp, gen)
	})
}

// onBattlePingEcho handles an inbound battle_ping1, treated as the echo of
// the outstanding ping (§4.5): cancel the timeout, advance the sequence,
// and schedule the next ping at lastSend+33ms rather than now+33ms.
func (s *Server) onBattlePingEcho(session *ClientSession) {
	session.mu.Lock()
	bp := session.battlePing
	session.mu.Unlock()
	if bp == nil {
		return
	}

	bp.mu.Lock()
	bp.generation++ // invalidates the timeout armed for this ping
	gen := bp.generation
	nextSeq := bp.sequence + 1
	delay := config.BattlePingInterval - time.Since(bp.lastSend)
	bp.mu.Unlock()

	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		s.fireBattlePing(session, bp, gen, nextSeq)
	})
}

// onBattlePingTimeout fires when no echo arrived within 5s. Per §4.5 this
// is treated as a lost echo, not a disconnect: the stream keeps going by
// sending the next ping immediately.
func (s *Server) onBattlePingTimeout(session *ClientSession, bp *battlePingState, expectGen uint64) {
	bp.mu.Lock()
	if bp.generation != expectGen {
		bp.mu.Unlock()
		return
	}
	bp.generation++
	gen := bp.generation
	nextSeq := bp.sequence + 1
	bp.mu.Unlock()

	s.log.Debug().Uint64("client", session.ID).Msg("battle ping echo timed out, continuing stream")
	s.fireBattlePing(session, bp, gen, nextSeq)
}

// clearBattlePing releases a session's battle-ping state and invalidates
// any in-flight timer, per the disconnect handling in §4.3/§5.
func (s *Server) clearBattlePing(session *ClientSession) {
	session.mu.Lock()
	bp := session.battlePing
	session.battlePing = nil
	session.mu.Unlock()

	if bp == nil {
		return
	}
	bp.mu.Lock()
	bp.generation++
	bp.mu.Unlock()
}

package lobby

import (
	"github.com/endotermic/Dark-Colony-Server/config"
	"github.com/endotermic/Dark-Colony-Server/internal/protocol"
)

// Dispatch feeds newly-read bytes through the session's frame decoder and
// dispatches every command found, per §4.1/§4.2. It is called from the
// connection's single reader goroutine, so no additional synchronization is
// needed around the decoder itself.
func (s *Server) Dispatch(session *ClientSession, chunk []byte) {
	session.Touch()

	frames, err := session.decoder.Feed(chunk)
	if err != nil {
		s.log.Warn().Err(err).Uint64("client", session.ID).Msg("framing error, resyncing at next frame")
	}

	roomID := session.RoomID()
	s.mu.RLock()
	room := s.rooms[roomID]
	s.mu.RUnlock()
	if room == nil {
		return
	}

	for _, frame := range frames {
		s.log.Debug().Uint64("client", session.ID).Uint8("counter", frame.Counter).Msg("frame received")
		cmds := protocol.ParseCommands(frame.Body, s.log)
		for _, cmd := range cmds {
			s.dispatch(session, room, cmd)
		}
	}
}

func (s *Server) dispatch(session *ClientSession, room *Room, cmd protocol.Command) {
	switch cmd.Op {
	case protocol.OpPlayerName:
		s.handlePlayerName(room, cmd)
	case protocol.OpPlayerChat:
		s.handlePlayerChat(room, cmd)
	case protocol.OpPlayerRace:
		s.handlePlayerRace(room, cmd)
	case protocol.OpPlayerColor:
		s.handlePlayerColor(room, cmd)
	case protocol.OpPlayerTeam:
		s.handlePlayerTeam(room, cmd)
	case protocol.OpPlayerReady:
		s.handlePlayerReady(session, room)
	case protocol.OpBeginBattle:
		s.handleBeginBattle(session, room)
	case protocol.OpBattlePing1:
		s.onBattlePingEcho(session)
	case protocol.OpBattlePing2:
		s.log.Debug().Uint64("client", session.ID).Msg("battle_ping2 received, no response required")
	case protocol.OpPing:
		// lobby ping echo, no-op.
	default:
		if protocol.IsOpaqueRelay(cmd.Op) {
			s.relayOpaque(session, room, cmd)
		}
	}
}

func (s *Server) handlePlayerName(room *Room, cmd protocol.Command) {
	if len(cmd.Data) < 1 {
		return
	}
	slot := cmd.Data[0]
	if slot > 7 {
		return
	}
	name := protocol.SanitizeName(cmd.Data[1:], config.MaxNameLen)

	room.mu.Lock()
	room.slots[slot].Name = name
	room.mu.Unlock()

	s.broadcast(room, protocol.BuildPlayerName(slot, name), 0)
}

func (s *Server) handlePlayerChat(room *Room, cmd protocol.Command) {
	text := protocol.SanitizeChat(cmd.Data, config.MaxChatLen)
	s.broadcast(room, protocol.BuildPlayerChat(text), 0)
}

func (s *Server) handlePlayerRace(room *Room, cmd protocol.Command) {
	if len(cmd.Data) < 2 {
		return
	}
	raceByte, slot := cmd.Data[0], cmd.Data[1]
	if slot > 7 {
		return
	}
	race := RaceAliens
	if raceByte == protocol.RaceHumans {
		race = RaceHumans
	}

	room.mu.Lock()
	room.slots[slot].Race = race
	room.mu.Unlock()

	s.broadcast(room, protocol.BuildPlayerRace(raceByte, slot), 0)
}

func (s *Server) handlePlayerColor(room *Room, cmd protocol.Command) {
	if len(cmd.Data) < 2 {
		return
	}
	color, slot := cmd.Data[0], cmd.Data[1]
	if slot > 7 {
		return
	}

	room.mu.Lock()
	room.slots[slot].Color = color
	room.mu.Unlock()

	s.broadcast(room, protocol.BuildPlayerColor(color, slot), 0)
}

func (s *Server) handlePlayerTeam(room *Room, cmd protocol.Command) {
	if len(cmd.Data) < 2 {
		return
	}
	team, slot := cmd.Data[0], cmd.Data[1]
	if slot > 7 {
		return
	}

	room.mu.Lock()
	room.slots[slot].Team = team
	room.mu.Unlock()

	s.broadcast(room, protocol.BuildPlayerTeam(team, slot), 0)
}

// handlePlayerReady implements the ready cascade from §4.2: mark the
// sender's own slot ready, broadcast ready_for_battle for it, then — if
// every occupied human slot is now ready — mark and broadcast slot 0 (AI)
// ready too.
func (s *Server) handlePlayerReady(session *ClientSession, room *Room) {
	slot := session.Slot()

	room.mu.Lock()
	room.slots[slot].Ready = true
	allReady := true
	for i := 1; i <= 7; i++ {
		if room.slots[i].occupied() && !room.slots[i].Ready {
			allReady = false
			break
		}
	}
	var markAI bool
	if allReady && !room.slots[0].Ready {
		room.slots[0].Ready = true
		markAI = true
	}
	room.mu.Unlock()

	s.broadcast(room, protocol.BuildPlayerReady(protocol.ReadyForBattle, slot), 0)
	if markAI {
		s.broadcast(room, protocol.BuildPlayerReady(protocol.ReadyForBattle, 0), 0)
	}
}

// handleBeginBattle implements §4.2/§4.5: mark the sender initiated,
// start its battle-ping stream, and if every joined client has now
// initiated, flip the room into battle and broadcast game_speed.
func (s *Server) handleBeginBattle(session *ClientSession, room *Room) {
	session.setBattleInitiated()
	s.beginBattlePing(session)

	ids := room.clientIDsSnapshot()
	allInitiated := true
	for _, id := range ids {
		c := s.lookupClient(id)
		if c == nil || !c.BattleInitiated() {
			allInitiated = false
			break
		}
	}
	if !allInitiated {
		return
	}

	room.mu.Lock()
	already := room.inBattle
	room.inBattle = true
	room.mu.Unlock()
	if already {
		return
	}

	s.broadcast(room, protocol.BuildGameSpeed(), 0)
}

// relayOpaque forwards an opaque relay command to every other client in the
// room verbatim, per §4.2's single generic broadcast path.
func (s *Server) relayOpaque(session *ClientSession, room *Room, cmd protocol.Command) {
	s.broadcast(room, protocol.BuildRelay(cmd.Op, cmd.Data), session.ID)
}

package lobby

import (
	"time"

	"github.com/endotermic/Dark-Colony-Server/config"
	"github.com/endotermic/Dark-Colony-Server/internal/protocol"
	"github.com/endotermic/Dark-Colony-Server/internal/transport"
)

// welcomeLines are the three chat-style lines sent after the map packet,
// per §4.3.
var welcomeLines = []string{
	"Welcome to the Dark Colony lobby.",
	"Type a message to chat with the room.",
	"Good hunting, commander.",
}

// Accept admits a new connection: allocates a session, places it in a
// room/slot via the room manager, and kicks off the delayed greeting.
// Returns nil if no slot could be assigned (defensive per §4.3 — should not
// occur given getAvailableRoom's predicate).
func (s *Server) Accept(conn transport.Conn) *ClientSession {
	id := s.nextClientID()
	session := newClientSession(id, conn, s.log)

	room := s.getAvailableRoom()
	slot, wasNonEmpty, err := s.addClientToRoom(session, room)
	if err != nil {
		s.log.Warn().Err(err).Msg("admission failed, closing connection")
		conn.Close()
		return nil
	}

	session.setRoomSlot(room.ID, slot)
	s.registerClient(session)

	go s.admitAfterDelay(session, room, slot, wasNonEmpty)

	return session
}

// admitAfterDelay implements the 2s greeting delay from §4.3/§5: if the
// socket is no longer writable when the delay expires, the session is
// destroyed instead of sending the ~400-byte snapshot to what was probably
// a port scanner.
func (s *Server) admitAfterDelay(session *ClientSession, room *Room, slot uint8, wasNonEmpty bool) {
	time.Sleep(config.GreetingDelay)

	if err := session.Send(protocol.BuildInitialPacket(slot)); err != nil {
		s.log.Debug().Uint64("client", session.ID).Msg("connection closed during greeting delay")
		s.Disconnect(session, "closed before greeting")
		return
	}

	session.Send(buildRoomSnapshot(room.snapshotSlots()))
	session.Send(buildMapPacket(room.snapshotMap()))
	for _, line := range welcomeLines {
		session.Send(protocol.BuildPlayerChat(line))
	}
	session.setMapSent()

	if wasNonEmpty {
		// Resync everyone who was already there; the new client already
		// has an up-to-date view from its own snapshot above.
		s.broadcastRoomSnapshot(room, session.ID)
	}
}

// Disconnect tears down a session: cancels its battle-ping timer, releases
// its room slot, removes it from the registry, and closes the socket.
// Safe to call more than once.
func (s *Server) Disconnect(session *ClientSession, reason string) {
	s.clearBattlePing(session)
	s.removeClientFromRoom(session)
	s.unregisterClient(session.ID)
	session.Conn.Close()
	s.log.Info().Uint64("client", session.ID).Str("reason", reason).Msg("disconnected")
}

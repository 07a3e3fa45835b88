package lobby

// broadcast sends payload to every client in room except exceptID (0 means
// no exclusion — client ids start at 1). Each recipient is written
// independently; one failed write never prevents the others, per §7.
func (s *Server) broadcast(room *Room, payload []byte, exceptID uint64) {
	for _, id := range room.clientIDsSnapshot() {
		if id == exceptID {
			continue
		}
		session := s.lookupClient(id)
		if session == nil {
			continue
		}
		if err := session.Send(payload); err != nil {
			s.log.Debug().Err(err).Uint64("client", id).Msg("broadcast write failed")
		}
	}
}

// broadcastMapped sends payload only to clients whose mapSent flag is set,
// used by the lobby-ping ticker (§4.7).
func (s *Server) broadcastMapped(room *Room, payload []byte) {
	for _, id := range room.clientIDsSnapshot() {
		session := s.lookupClient(id)
		if session == nil || !session.MapSent() {
			continue
		}
		if err := session.Send(payload); err != nil {
			s.log.Debug().Err(err).Uint64("client", id).Msg("lobby ping write failed")
		}
	}
}

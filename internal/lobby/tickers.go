package lobby

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/endotermic/Dark-Colony-Server/config"
	"github.com/endotermic/Dark-Colony-Server/internal/protocol"
)

// RunTickers starts the lobby-ping broadcaster and idle reaper described in
// §4.7. Both run until stop is closed.
func (s *Server) RunTickers(stop <-chan struct{}) {
	go s.runLobbyPingTicker(stop)
	go s.runIdleReaper(stop)
}

// runLobbyPingTicker sends a lobby ping every 300ms to every mapSent client
// in every room that is not currently in battle and has at least one client.
func (s *Server) runLobbyPingTicker(stop <-chan struct{}) {
	ticker := time.NewTicker(config.LobbyPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, room := range s.roomsSnapshot() {
				room.mu.Lock()
				skip := room.inBattle || len(room.clientIDs) == 0
				if !skip {
					room.pingCount++
				}
				room.mu.Unlock()
				if skip {
					continue
				}
				s.broadcastMapped(room, protocol.BuildPing())
			}
		}
	}
}

// runIdleReaper disconnects any client that has gone IdleTimeout without a
// readable byte, every 10s, per §4.7.
func (s *Server) runIdleReaper(stop <-chan struct{}) {
	ticker := time.NewTicker(config.IdleReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			timeout := s.cfg.IdleTimeout()
			for _, session := range s.clientsSnapshot() {
				if session.IdleFor() > timeout {
					s.disconnectIdle(session)
				}
			}
		}
	}
}

// disconnectIdle reaps an idle session. §8 S5 requires a one-line JSON
// disconnect record ahead of the close, distinct from the structured
// zerolog line Disconnect also emits.
func (s *Server) disconnectIdle(session *ClientSession) {
	record, _ := json.Marshal(struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}{Type: "disconnect", Reason: "idle"})
	fmt.Println(string(record))

	s.Disconnect(session, "idle timeout")
}

package lobby

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/endotermic/Dark-Colony-Server/config"
)

// Server owns the process-wide rooms and clients registries, per §9's
// design note: a single owner struct passed by reference to handlers,
// rather than top-level mutable state.
type Server struct {
	cfg *config.ServerConfig
	log zerolog.Logger

	mu      sync.RWMutex
	rooms   map[int]*Room
	clients map[uint64]*ClientSession

	idGen  uint64
	idMu   sync.Mutex
	randMu sync.Mutex
	rng    *rand.Rand
}

// NewServer creates a server with room 1 already present, per §3: "Room 1
// is created at startup and never deleted."
func NewServer(cfg *config.ServerConfig, log zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log,
		rooms:   make(map[int]*Room),
		clients: make(map[uint64]*ClientSession),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.rooms[1] = newRoom(1, s.randomRace)
	return s
}

// NewServerWithSeed is identical to NewServer but seeds the RNG
// deterministically, for tests that need reproducible slot/race/color
// assignment (§9: "tests inject a deterministic seed").
func NewServerWithSeed(cfg *config.ServerConfig, log zerolog.Logger, seed int64) *Server {
	s := NewServer(cfg, log)
	s.rng = rand.New(rand.NewSource(seed))
	return s
}

func (s *Server) randomRace() Race {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	if s.rng.Intn(2) == 0 {
		return RaceAliens
	}
	return RaceHumans
}

func (s *Server) randomIntn(n int) int {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Server) nextClientID() uint64 {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.idGen++
	return s.idGen
}

// getAvailableRoom implements §4.4: scan rooms ascending by id, return the
// first joinable one, or create a new room with the lowest unused id.
func (s *Server) getAvailableRoom() *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		room := s.rooms[id]
		if room.isJoinable() {
			return room
		}
	}

	id := 2
	for s.rooms[id] != nil {
		id++
	}
	room := newRoom(id, s.randomRace)
	s.rooms[id] = room
	s.log.Info().Int("room", id).Msg("created room")
	return room
}

// registerClient adds session to the global registry.
func (s *Server) registerClient(session *ClientSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[session.ID] = session
}

// lookupClient finds a session by id, used when delivering a broadcast.
func (s *Server) lookupClient(id uint64) *ClientSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients[id]
}

// unregisterClient removes session from the global registry.
func (s *Server) unregisterClient(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// deleteRoomIfEmpty removes a non-persistent room once it has no clients,
// per §3 invariant 6 / §4.3. Room 1 is never deleted.
func (s *Server) deleteRoomIfEmpty(room *Room) {
	if room.ID == 1 || !room.isEmpty() {
		return
	}
	s.mu.Lock()
	delete(s.rooms, room.ID)
	s.mu.Unlock()
	s.log.Info().Int("room", room.ID).Msg("deleted empty room")
}

// Stats reports room/client counts, used by the periodic stats log line.
type Stats struct {
	TotalRooms   int
	TotalClients int
}

// Stats returns a snapshot of server-wide counts.
func (s *Server) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{TotalRooms: len(s.rooms), TotalClients: len(s.clients)}
}

// roomsSnapshot copies the current room set for the tickers to iterate
// without holding the server lock while they send to sockets.
func (s *Server) roomsSnapshot() []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// clientsSnapshot copies the current client set for the idle reaper.
func (s *Server) clientsSnapshot() []*ClientSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clients := make([]*ClientSession, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	return clients
}

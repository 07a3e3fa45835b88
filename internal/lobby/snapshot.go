package lobby

import (
	"github.com/endotermic/Dark-Colony-Server/internal/protocol"
)

// buildRoomSnapshot composes the room_map snapshot frame per §4.6: two
// placeholder bytes, eight player_init tuples, then per-slot state blocks,
// then the sixteen room_param tuples.
func buildRoomSnapshot(slots [8]Slot) []byte {
	data := make([]byte, 0, 512)
	data = append(data, byte(protocol.OpRoomMap))
	data = append(data, 0x00, 0x00)

	for i := 0; i < 8; i++ {
		data = append(data, protocol.BuildPlayerInit(uint8(i))...)
	}

	for i := 0; i < 8; i++ {
		slot := slots[i]
		data = append(data, protocol.BuildPlayerName(uint8(i), slot.Name)...)
		data = append(data, protocol.BuildPlayerRace(uint8(slot.Race), uint8(i))...)
		data = append(data, protocol.BuildPlayerType(uint8(slot.Type), uint8(i))...)
		data = append(data, protocol.BuildPlayerColor(slot.Color, uint8(i))...)
		data = append(data, protocol.BuildPlayerTeam2(slot.Team, uint8(i))...)
		data = append(data, readyByte(slot.Ready, uint8(i))...)
	}

	params := roomParamDefaults()
	for idx, value := range params {
		data = append(data, protocol.BuildRoomParam(uint8(idx), value)...)
	}

	return data
}

func readyByte(ready bool, slot uint8) []byte {
	val := uint8(protocol.ReadyNo)
	if ready {
		val = protocol.ReadyYes
	}
	return protocol.BuildPlayerReady(val, slot)
}

// buildMapPacket composes the map-selection frame per §4.6.
func buildMapPacket(m MapInfo) []byte {
	data := make([]byte, 0, 64)
	data = append(data, byte(protocol.OpRoomMap))
	data = append(data, m.TypeChar, m.PlayerCount)
	data = append(data, m.Filename...)
	data = append(data, 0x00)
	data = append(data, m.DisplayName...)
	return data
}

// broadcastRoomSnapshot sends a fresh room snapshot to every client in room
// except exceptID (0 for none), used after joins/leaves/state changes that
// must resync every lobby member's view.
func (s *Server) broadcastRoomSnapshot(room *Room, exceptID uint64) {
	snapshot := buildRoomSnapshot(room.snapshotSlots())
	s.broadcast(room, snapshot, exceptID)
}

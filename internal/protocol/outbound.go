package protocol

import "encoding/binary"

// The functions in this file build frame *payloads* (opcode + data). They
// do not apply the length/counter header or terminator — EncodeFrame does
// that once, at the point a payload is actually sent to a connection.

// BuildInitialPacket builds the greeting sent once per connection, per §4.6.
func BuildInitialPacket(slot uint8) []byte {
	return []byte{byte(OpInitialPacket), 0x0f, 0x00, slot, 0x00}
}

// BuildPlayerChat builds a player_chat payload: <ascii> 0x00.
func BuildPlayerChat(text string) []byte {
	out := make([]byte, 0, 2+len(text))
	out = append(out, byte(OpPlayerChat))
	out = append(out, text...)
	out = append(out, 0x00)
	return out
}

// BuildPlayerName builds a player_name broadcast: <slot> 0x00 <ascii> 0x00.
func BuildPlayerName(slot uint8, name string) []byte {
	out := make([]byte, 0, 4+len(name))
	out = append(out, byte(OpPlayerName), slot, 0x00)
	out = append(out, name...)
	out = append(out, 0x00)
	return out
}

// BuildPlayerRace builds <race> <slot>.
func BuildPlayerRace(race, slot uint8) []byte {
	return []byte{byte(OpPlayerRace), race, slot}
}

// BuildPlayerColor builds <color> <slot>.
func BuildPlayerColor(color, slot uint8) []byte {
	return []byte{byte(OpPlayerColor), color, slot}
}

// BuildPlayerTeam builds <team> <slot>.
func BuildPlayerTeam(team, slot uint8) []byte {
	return []byte{byte(OpPlayerTeam), team, slot}
}

// BuildPlayerTeam2 builds the S->C team-confirmation variant: <team> <slot>.
func BuildPlayerTeam2(team, slot uint8) []byte {
	return []byte{byte(OpPlayerTeam2), team, slot}
}

// BuildPlayerType builds <type> <slot>.
func BuildPlayerType(playerType, slot uint8) []byte {
	return []byte{byte(OpPlayerType), playerType, slot}
}

// BuildPlayerReady builds <ready> <slot>.
func BuildPlayerReady(ready, slot uint8) []byte {
	return []byte{byte(OpPlayerReady), ready, slot}
}

// BuildPlayerInit builds the snapshot-only player_init tuple: 0x00 <slot>.
func BuildPlayerInit(slot uint8) []byte {
	return []byte{byte(OpPlayerInit), 0x00, slot}
}

// BuildRoomParam builds one five-byte room_param tuple: <idx> 0x00 <lo> <hi>.
func BuildRoomParam(idx uint8, value uint16) []byte {
	return []byte{byte(OpRoomParam), idx, 0x00, byte(value & 0xFF), byte(value >> 8)}
}

// BuildPing builds the bare lobby-ping payload (no data).
func BuildPing() []byte {
	return []byte{byte(OpPing)}
}

// BuildGameSpeed builds the 200% game_speed command broadcast on battle
// start, per §4.2 / §8 S4.
func BuildGameSpeed() []byte {
	return []byte{byte(OpGameSpeed), 0x21, 0x00, 0x00, 0x00}
}

// BuildBattlePing1 builds a battle_ping1 payload: two little-endian u32s,
// the sequence number and initialCounter+sequence.
func BuildBattlePing1(sequence, initialCounter uint32) []byte {
	out := make([]byte, 9)
	out[0] = byte(OpBattlePing1)
	binary.LittleEndian.PutUint32(out[1:5], sequence)
	binary.LittleEndian.PutUint32(out[5:9], initialCounter+sequence)
	return out
}

// BuildRelay re-wraps an opaque relay command for rebroadcast, stripping
// unit_move's trailing 0x00 data byte if present, per §4.2.
func BuildRelay(op Opcode, data []byte) []byte {
	if op == OpUnitMove && len(data) > 0 && data[len(data)-1] == 0x00 {
		data = data[:len(data)-1]
	}
	out := make([]byte, 0, 1+len(data))
	out = append(out, byte(op))
	out = append(out, data...)
	return out
}

package protocol

import (
	"bytes"

	"github.com/rs/zerolog"
)

// Command is one opcode plus its data region, already stripped of any
// terminator bytes that are part of the wire framing rather than payload.
type Command struct {
	Op   Opcode
	Data []byte
}

// UnknownCommandError reports an opcode not present in the command table.
type UnknownCommandError struct {
	Op Opcode
}

func (e *UnknownCommandError) Error() string {
	return "protocol: unknown opcode 0x" + hexByte(byte(e.Op))
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0F]})
}

// ParseCommands splits a frame body into individual commands per §4.2.
// Unknown opcodes are logged and the remainder of the frame is skipped,
// since their data length can't be inferred; known commands with malformed
// (too-short) data are likewise logged and skipped. The frame itself is
// never rejected — callers keep reading the next frame.
func ParseCommands(body []byte, log zerolog.Logger) []Command {
	var cmds []Command
	i := 0

	for i < len(body) {
		op := Opcode(body[i])
		rest := body[i+1:]

		// room_greeting: the client echoes the room_param snapshot tail back
		// verbatim. When it leads a frame, the whole frame is a no-op ack.
		if op == OpRoomParam && i == 0 {
			log.Debug().Msg("room_greeting echo received")
			return cmds
		}

		switch {
		case op == OpPlayerChat:
			data, consumed, ok := readNullDelimited(rest)
			if !ok {
				log.Warn().Str("opcode", "player_chat").Msg("truncated command, dropping rest of frame")
				return cmds
			}
			cmds = append(cmds, Command{Op: op, Data: data})
			i += 1 + consumed

		case op == OpPlayerName:
			data, consumed, ok := readPlayerName(rest)
			if !ok {
				log.Warn().Str("opcode", "player_name").Msg("truncated command, dropping rest of frame")
				return cmds
			}
			cmds = append(cmds, Command{Op: op, Data: data})
			i += 1 + consumed

		case op == OpPlayerReady || op == OpPing:
			cmds = append(cmds, Command{Op: op, Data: nil})
			i++

		case IsOpaqueRelay(op):
			cmds = append(cmds, Command{Op: op, Data: rest})
			i = len(body)

		default:
			if n, known := fixedDataLen[op]; known {
				if len(rest) < n {
					log.Warn().Uint8("opcode", byte(op)).Msg("truncated fixed-length command, dropping rest of frame")
					return cmds
				}
				cmds = append(cmds, Command{Op: op, Data: rest[:n]})
				i += 1 + n
				continue
			}

			log.Warn().Uint8("opcode", byte(op)).Bytes("rest", rest).Msg("unknown opcode, dropping rest of frame")
			return cmds
		}
	}

	return cmds
}

// readNullDelimited reads bytes up to (but not including) the first 0x00,
// reporting how many bytes (data + terminator) were consumed from rest.
func readNullDelimited(rest []byte) (data []byte, consumed int, ok bool) {
	idx := bytes.IndexByte(rest, 0x00)
	if idx < 0 {
		return nil, 0, false
	}
	return rest[:idx], idx + 1, true
}

// readPlayerName parses [ordinal][0x00][ascii-name][0x00] and returns the
// data as [ordinal, name-bytes...] (the two structural 0x00s are dropped).
func readPlayerName(rest []byte) (data []byte, consumed int, ok bool) {
	if len(rest) < 2 || rest[1] != 0x00 {
		return nil, 0, false
	}
	ordinal := rest[0]
	name, nameConsumed, ok := readNullDelimited(rest[2:])
	if !ok {
		return nil, 0, false
	}
	out := make([]byte, 0, 1+len(name))
	out = append(out, ordinal)
	out = append(out, name...)
	return out, 2 + nameConsumed, true
}

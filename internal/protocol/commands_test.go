package protocol

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func discardLog() zerolog.Logger {
	return zerolog.Nop()
}

func TestParseCommandsPlayerChat(t *testing.T) {
	body := append([]byte{byte(OpPlayerChat)}, append([]byte("gg"), 0x00)...)
	cmds := ParseCommands(body, discardLog())
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].Op != OpPlayerChat || !bytes.Equal(cmds[0].Data, []byte("gg")) {
		t.Errorf("cmd = %+v", cmds[0])
	}
}

func TestParseCommandsPlayerName(t *testing.T) {
	body := []byte{byte(OpPlayerName), 0x03, 0x00, 'B', 'o', 'b', 0x00}
	cmds := ParseCommands(body, discardLog())
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	want := append([]byte{0x03}, []byte("Bob")...)
	if !bytes.Equal(cmds[0].Data, want) {
		t.Errorf("data = %v, want %v", cmds[0].Data, want)
	}
}

func TestParseCommandsReadyAndPing(t *testing.T) {
	body := []byte{byte(OpPlayerReady), byte(OpPing)}
	cmds := ParseCommands(body, discardLog())
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2", len(cmds))
	}
	if cmds[0].Op != OpPlayerReady || cmds[1].Op != OpPing {
		t.Errorf("ops = %v, %v", cmds[0].Op, cmds[1].Op)
	}
}

func TestParseCommandsOpaqueRelayConsumesRestOfFrame(t *testing.T) {
	body := []byte{byte(OpUnitMove), 0x01, 0x02, 0x03, 0x00}
	cmds := ParseCommands(body, discardLog())
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if !bytes.Equal(cmds[0].Data, []byte{0x01, 0x02, 0x03, 0x00}) {
		t.Errorf("data = %v", cmds[0].Data)
	}
}

func TestParseCommandsFixedLength(t *testing.T) {
	body := []byte{byte(OpPlayerRace), 0x01, 0x04}
	cmds := ParseCommands(body, discardLog())
	if len(cmds) != 1 || !bytes.Equal(cmds[0].Data, []byte{0x01, 0x04}) {
		t.Fatalf("cmds = %+v", cmds)
	}
}

func TestParseCommandsUnknownOpcodeAbandonsFrame(t *testing.T) {
	body := []byte{0xEE, 0x01, 0x02, byte(OpPing)}
	cmds := ParseCommands(body, discardLog())
	if len(cmds) != 0 {
		t.Fatalf("got %d commands after an unknown opcode, want 0", len(cmds))
	}
}

func TestParseCommandsRoomGreetingAbortsFrame(t *testing.T) {
	body := []byte{byte(OpRoomParam), 0x00, 0x00, 0x01, 0x00, byte(OpPing)}
	cmds := ParseCommands(body, discardLog())
	if len(cmds) != 0 {
		t.Fatalf("got %d commands, want 0 (room_greeting consumes the whole frame)", len(cmds))
	}
}

func TestParseCommandsMultipleInOneFrame(t *testing.T) {
	body := append([]byte{byte(OpPlayerReady)}, byte(OpPlayerReady))
	cmds := ParseCommands(body, discardLog())
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2", len(cmds))
	}
}

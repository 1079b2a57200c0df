package system

import (
	"encoding/binary"
	"testing"
)

func inputEvent(tvSize int, typ, code uint16, value int32) []byte {
	rec := make([]byte, tvSize+8)
	binary.LittleEndian.PutUint16(rec[tvSize:], typ)
	binary.LittleEndian.PutUint16(rec[tvSize+2:], code)
	binary.LittleEndian.PutUint32(rec[tvSize+4:], uint32(value))
	return rec
}

func TestParseKeyPresses(t *testing.T) {
	const tvSize = 16
	var buf []byte
	buf = append(buf, inputEvent(tvSize, evKey, KeyF4, 1)...)
	buf = append(buf, inputEvent(tvSize, evKey, KeyF4, 0)...)
	buf = append(buf, inputEvent(tvSize, 0x00, 0, 0)...)
	buf = append(buf, inputEvent(tvSize, evKey, Key6, 2)...)
	buf = append(buf, inputEvent(tvSize, evKey, KeyUp, 1)...)
	// truncated record
	buf = append(buf, 0x01, 0x02)

	got := parseKeyPresses(buf, tvSize)
	want := []uint16{KeyF4, KeyUp}
	if len(got) != len(want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("codes = %v, want %v", got, want)
			break
		}
	}
}

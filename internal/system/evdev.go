package system

import "encoding/binary"

const evKey = 0x01

// Key codes from linux/input-event-codes.h
const (
	Key1    = 2
	Key2    = 3
	Key3    = 4
	Key4    = 5
	Key5    = 6
	Key6    = 7
	KeyB    = 48
	KeyF4   = 62
	KeyUp   = 103
	KeyDown = 108
)

// parseKeyPresses returns the codes of key-down records in buf, a run of
// input_event structs whose timeval takes tvSize bytes.
func parseKeyPresses(buf []byte, tvSize int) []uint16 {
	eventSize := tvSize + 2 + 2 + 4
	var codes []uint16
	for off := 0; off+eventSize <= len(buf); off += eventSize {
		rec := buf[off : off+eventSize]
		typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
		code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
		value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
		if typ == evKey && value == 1 {
			codes = append(codes, code)
		}
	}
	return codes
}

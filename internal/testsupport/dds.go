package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// DDSHeader describes a synthetic DDS file for tests.
type DDSHeader struct {
	Width    uint32
	Height   uint32
	Mips     uint32
	FourCC   string
	DXGI     uint32
	Reserved uint32
	// MiscFlags2 is written only when FourCC is "DX10".
	MiscFlags2 uint32
	// Payload bytes appended after the header.
	Payload int
}

// BuildDDS returns the bytes of a DDS file shaped like a modern writer's
// output: no linear-size flag, zero pitch, zero depth, and Reserved repeated
// across dwReserved1.
func BuildDDS(h DDSHeader) []byte {
	size := 128
	extended := h.FourCC == "DX10"
	if extended {
		size += 20
	}
	buf := make([]byte, size+h.Payload)
	binary.LittleEndian.PutUint32(buf[0:], 0x20534444)
	binary.LittleEndian.PutUint32(buf[4:], 124)
	binary.LittleEndian.PutUint32(buf[8:], 0x1|0x2|0x4|0x1000|0x20000)
	binary.LittleEndian.PutUint32(buf[12:], h.Height)
	binary.LittleEndian.PutUint32(buf[16:], h.Width)
	binary.LittleEndian.PutUint32(buf[28:], h.Mips)
	for i := 0; i < 11; i++ {
		binary.LittleEndian.PutUint32(buf[32+4*i:], h.Reserved)
	}
	binary.LittleEndian.PutUint32(buf[76:], 32)
	if h.FourCC != "" {
		binary.LittleEndian.PutUint32(buf[80:], 0x4)
		copy(buf[84:88], h.FourCC)
	} else {
		binary.LittleEndian.PutUint32(buf[80:], 0x41)
		binary.LittleEndian.PutUint32(buf[88:], 32)
	}
	binary.LittleEndian.PutUint32(buf[108:], 0x1000)
	if extended {
		binary.LittleEndian.PutUint32(buf[128:], h.DXGI)
		binary.LittleEndian.PutUint32(buf[132:], 3)
		binary.LittleEndian.PutUint32(buf[140:], 1)
		binary.LittleEndian.PutUint32(buf[144:], h.MiscFlags2)
	}
	for i := size; i < len(buf); i++ {
		buf[i] = 0x42
	}
	return buf
}

// WriteDDS writes a synthetic DDS file and returns its path.
func WriteDDS(t testing.TB, dir, name string, h DDSHeader) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, BuildDDS(h), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

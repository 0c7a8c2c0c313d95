package dds

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadPrefix returns up to PrefixSize bytes from the start of path. Short
// files yield a short slice rather than an error.
func ReadPrefix(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, PrefixSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return buf[:n], nil
}

// HasExtendedHeader reports whether prefix announces a DX10 extended header.
// A prefix too short to hold the tag fails closed.
func HasExtendedHeader(prefix []byte) bool {
	if len(prefix) < OffsetFourCC+len(ExtendedTag) {
		return false
	}
	return bytes.Equal(prefix[OffsetFourCC:OffsetFourCC+len(ExtendedTag)], ExtendedTag[:])
}

// ExplicitFormatCode returns the DXGI format stored in the extended header.
func ExplicitFormatCode(prefix []byte) (uint32, bool) {
	if !HasExtendedHeader(prefix) || len(prefix) < OffsetDXGIFormat+4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(prefix[OffsetDXGIFormat:]), true
}

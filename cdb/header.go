package cdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrBadFileHeader = errors.New("cdb: bad file header")

const (
	fileHeaderSize = 24

	// Chunk slots are addressed from offset 20, so the header's last
	// word overlaps slot 0. Observed layout, kept as-is.
	slotTableBase = 20
)

// FileHeader is the 24-byte little-endian header at the start of a
// database file. Only SubfileSize drives the writer; the remaining
// fields are read so the header can be validated in full.
type FileHeader struct {
	S0          uint16
	S1          uint16
	ChunkCount  uint32
	Footer      uint32
	SubfileSize uint32
	Unk0        uint32
}

// ReadFileHeader reads the header from the start of r. A short read
// is reported as ErrBadFileHeader.
func ReadFileHeader(r io.Reader) (hdr FileHeader, err error) {
	if err = binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		err = fmt.Errorf("%w: %v", ErrBadFileHeader, err)
	}
	return
}

// FirstChunkPosition probes the database for the packed position of
// its first chunk record, used to prefill the insertion start chunk.
// The probe skips four bytes past the file header before reading the
// position word; that matches the tool this format was captured from,
// even though insertion addresses slot 0 at offset 20.
func FirstChunkPosition(path string) (x, z, dim int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("cdb: %w", err)
	}
	defer f.Close()

	if _, err = f.Seek(fileHeaderSize+4, io.SeekStart); err != nil {
		return 0, 0, 0, fmt.Errorf("cdb: %w", err)
	}
	var packed uint32
	if err = binary.Read(f, binary.LittleEndian, &packed); err != nil {
		return 0, 0, 0, fmt.Errorf("cdb: reading first chunk position: %w", err)
	}
	x, z, dim = DecodePosition(packed)
	return x, z, dim, nil
}

package cdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

const chunkMagic = 0xABCDEF99

const (
	blockPlaneSize  = 4096
	nibblePlaneSize = 2048

	// Zero-filled regions of unknown meaning. The engine expects
	// them; their byte values must be preserved exactly.
	reservedPlaneSize  = 2048
	reservedFooterSize = 256

	biomePlaneSize = 256
)

const (
	sectionCount    = 6
	chunkHeaderSize = 4 + 2 + 6 + sectionCount*16
	payloadOffset   = 4 + chunkHeaderSize
)

type sectionEntry struct {
	Flag          int32
	ByteOffset    int32
	CompressedLen int32
	RawLen        int32
}

// WriteChunk serializes one 16x16 chunk column of the flat voxel
// array and writes the record into the slot at offset. chunkX and
// chunkZ are in 16-block chunk units; the column always spans the
// structure's full declared height. The file is neither truncated nor
// resized, and no check is made that the record fits its slot - the
// caller guarantees capacity.
func WriteChunk(f io.WriteSeeker, offset int64, chunkX, chunkZ int, flat []Voxel, size Size) error {
	record, err := encodeChunkRecord(chunkX, chunkZ, flat, size)
	if err != nil {
		return err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("cdb: seeking chunk slot: %w", err)
	}
	if _, err := f.Write(record); err != nil {
		return fmt.Errorf("cdb: writing chunk record: %w", err)
	}
	return nil
}

func encodeChunkRecord(chunkX, chunkZ int, flat []Voxel, size Size) ([]byte, error) {
	raw := buildRawChunk(chunkX, chunkZ, flat, size)

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("cdb: compressing chunk: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("cdb: compressing chunk: %w", err)
	}

	var header struct {
		Position uint32
		Format   [2]int8
		Reserved [3]uint16
		Sections [sectionCount]sectionEntry
	}
	header.Position = EncodePosition(chunkX, chunkZ, 0)
	header.Format = [2]int8{1, 0}
	header.Sections[0] = sectionEntry{
		Flag:          0,
		ByteOffset:    payloadOffset,
		CompressedLen: int32(compressed.Len()),
		RawLen:        int32(len(raw)),
	}
	for i := 1; i < sectionCount; i++ {
		header.Sections[i] = sectionEntry{Flag: -1}
	}

	record := bytes.NewBuffer(make([]byte, 0, payloadOffset+compressed.Len()))
	if err := binary.Write(record, binary.LittleEndian, uint32(chunkMagic)); err != nil {
		return nil, err
	}
	if err := binary.Write(record, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	record.Write(compressed.Bytes())
	return record.Bytes(), nil
}

// buildRawChunk lays out the uncompressed payload: a u16 sub-chunk
// count, then per sub-chunk a block-id plane, a packed metadata
// nibble plane and a reserved plane, then the reserved footer and the
// biome plane.
func buildRawChunk(chunkX, chunkZ int, flat []Voxel, size Size) []byte {
	subchunks := (size.Height + 15) / 16
	raw := make([]byte, 0, 2+subchunks*(blockPlaneSize+nibblePlaneSize+reservedPlaneSize)+reservedFooterSize+biomePlaneSize)
	raw = binary.LittleEndian.AppendUint16(raw, uint16(subchunks))

	for s := 0; s < subchunks; s++ {
		// Block ids: x outer, z middle, y inner.
		for x := 0; x < 16; x++ {
			for z := 0; z < 16; z++ {
				for subY := 0; subY < 16; subY++ {
					worldY := s*16 + subY
					var id byte
					if worldY < size.Height {
						idx := size.voxelIndex(chunkX*16+x, worldY, chunkZ*16+z)
						if idx >= 0 && idx < len(flat) {
							id = byte(flat[idx].ID)
						}
					}
					raw = append(raw, id)
				}
			}
		}

		// Metadata nibbles: y outer, z middle, x inner; even linear
		// index in the low nibble, odd in the high.
		nibbles := make([]byte, nibblePlaneSize)
		for subY := 0; subY < 16; subY++ {
			for z := 0; z < 16; z++ {
				for x := 0; x < 16; x++ {
					worldY := s*16 + subY
					var meta byte
					if worldY < size.Height {
						idx := size.voxelIndex(chunkX*16+x, worldY, chunkZ*16+z)
						if idx >= 0 && idx < len(flat) {
							// Metadata wider than a nibble must not
							// bleed into the neighboring cell.
							meta = flat[idx].Meta & 0xF
						}
					}
					local := subY*256 + z*16 + x
					if local&1 == 0 {
						nibbles[local>>1] = nibbles[local>>1]&0xF0 | meta
					} else {
						nibbles[local>>1] = nibbles[local>>1]&0x0F | meta<<4
					}
				}
			}
		}
		raw = append(raw, nibbles...)

		raw = append(raw, make([]byte, reservedPlaneSize)...)
	}

	raw = append(raw, make([]byte, reservedFooterSize)...)

	// Biome plane, x-major - transposed relative to the block planes.
	// Out-of-range cells take the default biome.
	biomes := make([]byte, biomePlaneSize)
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			idx := (chunkZ*16+z)*size.Width + chunkX*16 + x
			if idx >= 0 && idx < len(flat) {
				biomes[x*16+z] = byte(flat[idx].ID)
			} else {
				biomes[x*16+z] = 1
			}
		}
	}
	return append(raw, biomes...)
}

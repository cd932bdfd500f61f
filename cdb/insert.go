package cdb

import (
	"fmt"
	"log/slog"
	"os"
)

// Inserter writes a decoded structure into a database as chunk
// records plus matching index entries. Insertion is single-writer and
// sequential; all chunk writes go through one file handle.
type Inserter struct {
	// Logger receives per-chunk and completion events. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Insert covers the structure with 16x16 chunk columns and writes
// each into its subfile slot, starting at chunk (startX, startZ) and
// numbering index entries from slot upwards. The grid is walked z
// outer, x inner. Slot offsets are not checked against the database's
// allocated slot table; a footprint larger than the table silently
// writes past it, as the format's original tooling did. Chunks
// already written stay written if a later write fails.
func (ins *Inserter) Insert(dbPath string, flat []Voxel, size Size, startX, startZ, slot int) error {
	logger := ins.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.OpenFile(dbPath, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("cdb: opening database: %w", err)
	}
	defer f.Close()

	hdr, err := ReadFileHeader(f)
	if err != nil {
		return err
	}

	chunksX := (size.Width + 15) / 16
	chunksZ := (size.Length + 15) / 16

	for cz := 0; cz < chunksZ; cz++ {
		for cx := 0; cx < chunksX; cx++ {
			offset := slotTableBase + int64(cz*chunksX+cx)*int64(hdr.SubfileSize)
			logger.Debug("writing chunk record",
				"chunkX", startX+cx, "chunkZ", startZ+cz, "offset", offset, "slot", slot)
			if err := WriteChunk(f, offset, startX+cx, startZ+cz, flat, size); err != nil {
				return err
			}
			if err := AppendIndexEntry(dbPath, startX+cx, startZ+cz, slot, logger); err != nil {
				return err
			}
			slot++
		}
	}

	logger.Info("structure insertion complete", "chunks", chunksX*chunksZ)
	return nil
}

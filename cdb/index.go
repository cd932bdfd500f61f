package cdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const indexFileName = "index.cdb"

const indexEntrySize = 16

// Constant fields carried by every index record. Their meaning is
// unknown; the byte values are preserved exactly.
const (
	indexConst0 = 0x20FF
	indexUnk0   = 0xA
	indexUnk1   = 0x1
	indexConst1 = 0x8000
)

type indexEntry struct {
	X       uint16
	Z       uint16
	Slot    uint16
	Subfile uint16
	Const0  uint16
	Unk0    uint16
	Unk1    uint16
	Const1  uint16
}

// AppendIndexEntry appends one 16-byte spatial-index record for the
// chunk at (x, z) to the index.cdb next to the database. Index
// maintenance is best-effort: a missing index file is logged and
// skipped, never an error. Existing records are never rewritten.
func AppendIndexEntry(dbPath string, x, z, slot int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	indexPath := filepath.Join(filepath.Dir(dbPath), indexFileName)
	f, err := os.OpenFile(indexPath, os.O_WRONLY|os.O_APPEND, 0644)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("index file not found, skipping", "path", indexPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("cdb: opening index: %w", err)
	}

	xb := x
	if xb < 0 {
		xb += 1 << coordBits
	}
	zb := z
	if zb < 0 {
		zb += 1 << coordBits
	}
	entry := indexEntry{
		X:      uint16(xb & coordMask),
		Z:      uint16(zb & coordMask),
		Slot:   uint16(slot),
		Const0: indexConst0,
		Unk0:   indexUnk0,
		Unk1:   indexUnk1,
		Const1: indexConst1,
	}

	if err := binary.Write(f, binary.LittleEndian, &entry); err != nil {
		f.Close()
		return fmt.Errorf("cdb: appending index entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cdb: appending index entry: %w", err)
	}

	logger.Info("updated index", "x", x, "z", z, "slot", slot)
	return nil
}

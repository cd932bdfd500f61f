package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
	"github.com/willf/bitset"

	"github.com/cdbtools/nbt2cdb/cdb"
)

var ErrInvalidStructure = errors.New("structure: missing or malformed required field")
var ErrSizeMismatch = errors.New("structure: block content disagrees with declared size")

const airBlockName = "minecraft:air"

type structureRoot struct {
	Size    []int32          `nbt:"size"`
	Palette []structureState `nbt:"palette"`
	Blocks  []structureBlock `nbt:"blocks"`
}

type structureState struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties"`
}

type structureBlock struct {
	Pos   []int32 `nbt:"pos"`
	State int32   `nbt:"state"`
}

// ReadStructure decodes a tagged structure file into the flat voxel
// array the chunk encoder consumes. Block states resolve through the
// palette and the mapping; anything unmapped becomes the empty block.
// Nothing is returned on failure, and nothing has been written.
func ReadStructure(path string, mapping *BlockMapping, logger *slog.Logger) ([]cdb.Voxel, cdb.Size, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, cdb.Size{}, fmt.Errorf("structure: %w", err)
	}
	defer f.Close()

	src, err := maybeGunzip(f)
	if err != nil {
		return nil, cdb.Size{}, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}

	var root structureRoot
	if _, err := nbt.NewDecoder(src).Decode(&root); err != nil {
		return nil, cdb.Size{}, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	return decodeStructure(&root, mapping, logger)
}

// Structure files are usually gzip-compressed NBT, but plain NBT
// shows up in the wild too.
func maybeGunzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, err
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}

func decodeStructure(root *structureRoot, mapping *BlockMapping, logger *slog.Logger) ([]cdb.Voxel, cdb.Size, error) {
	if len(root.Size) != 3 || root.Palette == nil || root.Blocks == nil {
		return nil, cdb.Size{}, ErrInvalidStructure
	}
	size := cdb.Size{
		Width:  int(root.Size[0]),
		Height: int(root.Size[1]),
		Length: int(root.Size[2]),
	}
	if size.Width < 0 || size.Height < 0 || size.Length < 0 {
		return nil, cdb.Size{}, ErrInvalidStructure
	}

	names := make([]string, len(root.Palette))
	for i, state := range root.Palette {
		name := state.Name
		if name == "" {
			name = airBlockName
		}
		names[i] = FormatBlockName(name, state.Properties)
	}

	total := size.Volume()
	flat := make([]cdb.Voxel, total)
	seen := bitset.New(uint(total))

	for _, b := range root.Blocks {
		if len(b.Pos) != 3 {
			return nil, cdb.Size{}, ErrInvalidStructure
		}
		x, y, z := int(b.Pos[0]), int(b.Pos[1]), int(b.Pos[2])
		if x < 0 || x >= size.Width || y < 0 || y >= size.Height || z < 0 || z >= size.Length {
			return nil, cdb.Size{}, fmt.Errorf("%w: block at (%d, %d, %d) outside %dx%dx%d",
				ErrSizeMismatch, x, y, z, size.Width, size.Height, size.Length)
		}

		name := airBlockName
		if s := int(b.State); s >= 0 && s < len(names) {
			name = names[s]
		}

		idx := uint(y*size.Width*size.Length + z*size.Width + x)
		if seen.Test(idx) {
			// Last entry wins, as the engine's own tooling behaves.
			logger.Debug("duplicate block entry", "x", x, "y", y, "z", z)
		}
		seen.Set(idx)
		flat[idx] = mapping.Resolve(name)
	}

	if len(flat) != total {
		return nil, cdb.Size{}, ErrSizeMismatch
	}

	logger.Info("structure decoded",
		"width", size.Width, "height", size.Height, "length", size.Length,
		"blocks", len(root.Blocks), "populated", seen.Count())
	return flat, size, nil
}

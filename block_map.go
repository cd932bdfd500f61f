package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cdbtools/nbt2cdb/cdb"
)

// BlockMapping resolves canonical block names to the engine's legacy
// (runtime id, metadata) pairs. It is built once from blocks.json and
// immutable afterwards.
type BlockMapping struct {
	byName map[string]cdb.Voxel
}

// FormatBlockName returns the canonical form of a block state:
// `name[k1=v1,k2=v2]` with properties sorted by key, or the bare name
// when there are none.
func FormatBlockName(name string, props map[string]string) string {
	if len(props) == 0 {
		return name
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(props[k])
	}
	sb.WriteByte(']')
	return sb.String()
}

// LoadBlockMapping reads a blocks.json of the form
// {"blocks": {"<id>:<meta>": "<name>"}} and inverts it into a
// name-to-id table.
func LoadBlockMapping(path string) (*BlockMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("block mapping: %w", err)
	}

	var doc struct {
		Blocks map[string]string `json:"blocks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("block mapping: %w", err)
	}

	byName := make(map[string]cdb.Voxel, len(doc.Blocks))
	for key, name := range doc.Blocks {
		idPart, metaPart, ok := strings.Cut(key, ":")
		if !ok {
			return nil, fmt.Errorf("block mapping: bad id key %q", key)
		}
		id, err := strconv.Atoi(idPart)
		if err != nil {
			return nil, fmt.Errorf("block mapping: bad id key %q: %w", key, err)
		}
		meta, err := strconv.Atoi(metaPart)
		if err != nil {
			return nil, fmt.Errorf("block mapping: bad id key %q: %w", key, err)
		}
		byName[FormatBlockName(name, nil)] = cdb.Voxel{ID: uint16(id), Meta: uint8(meta)}
	}
	return &BlockMapping{byName: byName}, nil
}

// Resolve returns the runtime id and metadata for a canonical block
// name. Unknown names map to (0, 0), the engine's empty block.
func (m *BlockMapping) Resolve(name string) cdb.Voxel {
	return m.byName[name]
}

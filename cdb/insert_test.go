package cdb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testSubfileSize = 0x3000

// newTestDatabase writes a database file with the given number of
// pre-allocated chunk slots, plus an empty sibling index.cdb.
func newTestDatabase(t *testing.T, slots int) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "world.cdb")

	var buf bytes.Buffer
	hdr := FileHeader{
		S0:          2,
		S1:          1,
		ChunkCount:  uint32(slots),
		SubfileSize: testSubfileSize,
	}
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		t.Fatal(err)
	}
	buf.Write(make([]byte, slots*testSubfileSize))
	if err := os.WriteFile(dbPath, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.cdb"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	return dbPath
}

func TestInsertSingleChunk(t *testing.T) {
	dbPath := newTestDatabase(t, 4)

	size := Size{Width: 16, Height: 2, Length: 16}
	flat := make([]Voxel, size.Volume())
	flat[0] = Voxel{ID: 42, Meta: 3}

	ins := &Inserter{}
	if err := ins.Insert(dbPath, flat, size, 5, -6, 9); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	// Exactly one record, at slot 0 (offset 20), positioned at the
	// start chunk.
	if got := binary.LittleEndian.Uint32(data[20:24]); got != chunkMagic {
		t.Fatalf("magic at slot 0 = %#x", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != EncodePosition(5, -6, 0) {
		t.Fatalf("position at slot 0 = %#x", got)
	}
	if got := binary.LittleEndian.Uint32(data[20+testSubfileSize:][:4]); got == chunkMagic {
		t.Fatal("unexpected record in slot 1")
	}

	index, err := os.ReadFile(filepath.Join(filepath.Dir(dbPath), "index.cdb"))
	if err != nil {
		t.Fatal(err)
	}
	if len(index) != indexEntrySize {
		t.Fatalf("index length = %d, want one record", len(index))
	}
	var entry indexEntry
	if err := binary.Read(bytes.NewReader(index), binary.LittleEndian, &entry); err != nil {
		t.Fatal(err)
	}
	if entry.X != 5 || entry.Z != 0x3FFA || entry.Slot != 9 {
		t.Fatalf("index entry = %+v", entry)
	}
}

func TestInsertMultiChunkOffsets(t *testing.T) {
	dbPath := newTestDatabase(t, 8)

	// 17x17 footprint: a 2x2 chunk grid walked z outer, x inner.
	size := Size{Width: 17, Height: 1, Length: 17}
	flat := make([]Voxel, size.Volume())

	ins := &Inserter{}
	if err := ins.Insert(dbPath, flat, size, 10, 20, 1); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	wantPositions := []struct{ x, z int }{
		{10, 20}, {11, 20}, {10, 21}, {11, 21},
	}
	for slot, want := range wantPositions {
		off := 20 + slot*testSubfileSize
		if got := binary.LittleEndian.Uint32(data[off : off+4]); got != chunkMagic {
			t.Fatalf("slot %d: magic = %#x", slot, got)
		}
		if got := binary.LittleEndian.Uint32(data[off+4 : off+8]); got != EncodePosition(want.x, want.z, 0) {
			t.Errorf("slot %d: position = %#x, want chunk (%d, %d)", slot, got, want.x, want.z)
		}
	}

	index, err := os.ReadFile(filepath.Join(filepath.Dir(dbPath), "index.cdb"))
	if err != nil {
		t.Fatal(err)
	}
	if len(index) != 4*indexEntrySize {
		t.Fatalf("index length = %d, want four records", len(index))
	}
	var entries [4]indexEntry
	if err := binary.Read(bytes.NewReader(index), binary.LittleEndian, &entries); err != nil {
		t.Fatal(err)
	}
	for i, entry := range entries {
		if int(entry.Slot) != 1+i {
			t.Errorf("record %d: slot = %d, want %d", i, entry.Slot, 1+i)
		}
		if int(entry.X) != wantPositions[i].x || int(entry.Z) != wantPositions[i].z {
			t.Errorf("record %d: chunk = (%d, %d), want (%d, %d)",
				i, entry.X, entry.Z, wantPositions[i].x, wantPositions[i].z)
		}
	}
}

func TestInsertBadHeader(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "world.cdb")
	if err := os.WriteFile(dbPath, make([]byte, 10), 0644); err != nil {
		t.Fatal(err)
	}

	ins := &Inserter{}
	err := ins.Insert(dbPath, nil, Size{Width: 1, Height: 1, Length: 1}, 0, 0, 0)
	if !errors.Is(err, ErrBadFileHeader) {
		t.Fatalf("err = %v, want ErrBadFileHeader", err)
	}
}

func TestReadFileHeader(t *testing.T) {
	var buf bytes.Buffer
	want := FileHeader{S0: 2, S1: 1, ChunkCount: 9, Footer: 0x1234, SubfileSize: 0x8000, Unk0: 5}
	if err := binary.Write(&buf, binary.LittleEndian, &want); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFileHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("header = %+v, want %+v", got, want)
	}

	if _, err := ReadFileHeader(bytes.NewReader([]byte{1, 2, 3})); !errors.Is(err, ErrBadFileHeader) {
		t.Fatalf("short header err = %v, want ErrBadFileHeader", err)
	}
}

func TestFirstChunkPosition(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "world.cdb")

	// The probe reads the u32 four bytes past the 24-byte header.
	data := make([]byte, 32)
	binary.LittleEndian.PutUint32(data[28:32], EncodePosition(3, -2, 1))
	if err := os.WriteFile(dbPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	x, z, dim, err := FirstChunkPosition(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if x != 3 || z != -2 || dim != 1 {
		t.Fatalf("first chunk position = (%d, %d, %d), want (3, -2, 1)", x, z, dim)
	}
}

// Package cdb encodes chunk records and spatial-index entries for the
// CDB world-database container. The format is undocumented; every
// constant and reserved region here reproduces the observed byte
// layout and must not be reinterpreted.
package cdb

// Voxel is one cell of a flat structure array: the engine's legacy
// two-part block identifier.
type Voxel struct {
	ID   uint16
	Meta uint8
}

// Size is a structure's declared extent in blocks. The flat voxel
// array covering it is indexed y-major, then z, then x.
type Size struct {
	Width  int
	Height int
	Length int
}

// Volume returns the number of voxels the declared extent holds.
func (s Size) Volume() int {
	return s.Width * s.Height * s.Length
}

func (s Size) voxelIndex(x, y, z int) int {
	return y*s.Width*s.Length + z*s.Width + x
}

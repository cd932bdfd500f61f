package cdb

const (
	coordBits  = 14
	coordMask  = 1<<coordBits - 1
	coordBound = 1 << (coordBits - 1)
	dimMask    = 0xF
)

// EncodePosition packs signed chunk coordinates and a dimension into
// the 32-bit field used by chunk records: 14 bits each for x and z in
// two's complement, the dimension in the top four bits.
func EncodePosition(x, z, dim int) uint32 {
	if x < 0 {
		x += 1 << coordBits
	}
	if z < 0 {
		z += 1 << coordBits
	}
	return uint32(dim&dimMask)<<28 | uint32(z&coordMask)<<14 | uint32(x&coordMask)
}

// DecodePosition is the inverse of EncodePosition, sign-extending x
// and z back into [-8192, 8191].
func DecodePosition(v uint32) (x, z, dim int) {
	x = int(v & coordMask)
	z = int(v >> coordBits & coordMask)
	dim = int(v >> 28 & dimMask)
	if x >= coordBound {
		x -= 1 << coordBits
	}
	if z >= coordBound {
		z -= 1 << coordBits
	}
	return
}

package core

import "math"

// QuantizeChannel maps a [0,1] intensity to a byte, rounding to nearest
func QuantizeChannel(c float64) uint8 {
	if math.IsNaN(c) {
		return 0
	}
	return uint8(math.Round(max(0, min(1, c)) * 255))
}

// PutRGBA writes color as R,G,B,255 into dst, which must hold at least 4 bytes
func PutRGBA(dst []byte, color Vec3) {
	dst[0] = QuantizeChannel(color.X)
	dst[1] = QuantizeChannel(color.Y)
	dst[2] = QuantizeChannel(color.Z)
	dst[3] = 255
}

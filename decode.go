package hx71x

const (
	maxPositive = 1<<(DataBits-1) - 1 // 0x7FFFFF
	span        = 1 << DataBits       // 0x1000000
	dataMask    = span - 1
)

// SignExtend24 interprets the low 24 bits of v as a two's complement value.
func SignExtend24(v uint32) int32 {
	v &= dataMask
	if v > maxPositive {
		return int32(v) - span
	}
	return int32(v)
}

// Decode converts a raw pulse-train word, as shifted in MSB first over
// 24+mode pulses, into a signed sample. The mode bits are discarded.
//
// Every transport decodes through this function.
func Decode(raw uint32, mode Mode) int32 {
	return SignExtend24(raw >> uint(normalizeMode(mode)))
}

// Encode is the inverse of Decode: it returns the word a chip would shift out
// for sample v in the given mode. The trailing mode bits are set high, as the
// chip drives the data line high after the last data bit.
func Encode(v int32, mode Mode) uint32 {
	m := uint(normalizeMode(mode))
	return (uint32(v)&dataMask)<<m | (1<<m - 1)
}

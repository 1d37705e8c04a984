package pagedb

import "encoding/binary"

// bytesIsZero reports whether data is all zeros. len(data) must be a
// multiple of 32.
func bytesIsZero(data []byte) bool {
	if len(data)%32 != 0 {
		panic("data is not a multiple of 32")
	}
	var v uint64
	for len(data) > 0 {
		v |= binary.LittleEndian.Uint64(data[0:8])
		v |= binary.LittleEndian.Uint64(data[8:16])
		v |= binary.LittleEndian.Uint64(data[16:24])
		v |= binary.LittleEndian.Uint64(data[24:32])
		data = data[32:]
	}
	return v == 0
}

package storage

import "github.com/yale-db/godb-core/common"

// bitmap provides a convenient view over a byte slice used as a page
// header's occupancy map. Bit i is numbered LSB-first within byte
// i/8: bit i lives in byte[i/8] at position 1<<(i%8).
//
// Unlike a general-purpose bitmap, this one does not own its storage:
// it is a thin accessor over bytes that belong to a HeapPage's
// underlying buffer, so mutations through it are visible in the
// page's serialized form without any extra copy step.
type bitmap struct {
	bytes   []byte
	numBits int
}

// asBitmap creates a bitmap view over data, which must hold at least
// ceil(numBits/8) bytes.
func asBitmap(data []byte, numBits int) bitmap {
	needed := (numBits + 7) / 8
	common.Assert(len(data) >= needed, "bitmap buffer too small: have %d bytes, need %d", len(data), needed)
	return bitmap{bytes: data[:needed], numBits: numBits}
}

// get returns the value of bit i.
func (b bitmap) get(i int) bool {
	common.Assert(i >= 0 && i < b.numBits, "bitmap index %d out of bounds (numBits=%d)", i, b.numBits)
	return b.bytes[i/8]&(1<<uint(i%8)) != 0
}

// set sets bit i to on.
func (b bitmap) set(i int, on bool) {
	common.Assert(i >= 0 && i < b.numBits, "bitmap index %d out of bounds (numBits=%d)", i, b.numBits)
	mask := byte(1) << uint(i%8)
	if on {
		b.bytes[i/8] |= mask
	} else {
		b.bytes[i/8] &^= mask
	}
}

// firstZero returns the lowest-indexed unset bit, or -1 if every bit is set.
func (b bitmap) firstZero() int {
	for i := 0; i < b.numBits; i++ {
		if !b.get(i) {
			return i
		}
	}
	return -1
}

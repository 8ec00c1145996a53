package ospfs

import "github.com/boljen/go-bitmap"

// Bitmap is the free-block allocator. Bit value 1 means free, 0 means
// allocated. The underlying bitmap.Bitmap wraps the image's own bitmap
// region directly: Allocate/Free mutate the backing image buffer in place,
// there is no separate copy held anywhere else.
type Bitmap struct {
	bits          bitmap.Bitmap
	firstData     uint32
	nblocks       uint32
	reservedUpTo  uint32
	lastAllocated uint32
}

// newBitmap wraps the bitmap region of img (bitmapBlocks blocks starting at
// startBlock) as a Bitmap covering bit indices [0, nblocks). Bits in the
// reserved range [0, firstData) are never touched by Allocate/Free.
func newBitmap(img *Image, startBlock, bitmapBlocks, nblocks uint32) *Bitmap {
	region := img.buf[uint64(startBlock)*BlockSize : uint64(startBlock+bitmapBlocks)*BlockSize]
	return &Bitmap{
		bits:         bitmap.NewSlice(region),
		firstData:    img.FirstDataBlock(),
		nblocks:      nblocks,
		reservedUpTo: img.FirstDataBlock(),
	}
}

// isReserved reports whether block n falls in the permanently-allocated
// range: boot sector, superblock, bitmap blocks, or inode table.
func (b *Bitmap) isReserved(n uint32) bool {
	return n < b.reservedUpTo
}

// Allocate scans ascending from the first data block for a free bit
// (first fit), flips it to allocated, and returns it. ok is false if no
// free block exists.
func (b *Bitmap) Allocate() (blockNum uint32, ok bool) {
	for n := b.firstData; n < b.nblocks; n++ {
		if b.bits.Get(int(n)) {
			b.bits.Set(int(n), false)
			b.lastAllocated = n
			return n, true
		}
	}
	return 0, false
}

// Free marks block n as available again. Freeing a reserved block or an
// out-of-range block is a silent no-op.
func (b *Bitmap) Free(n uint32) {
	if n >= b.nblocks || b.isReserved(n) {
		return
	}
	b.bits.Set(int(n), true)
}

// IsFree reports whether block n is currently marked free. Used by Check
// (fsck.go) and tests; out-of-range blocks report false.
func (b *Bitmap) IsFree(n uint32) bool {
	if n >= b.nblocks {
		return false
	}
	return b.bits.Get(int(n))
}

// FreeBlockCount returns the number of blocks currently marked free.
func (b *Bitmap) FreeBlockCount() uint32 {
	var count uint32
	for n := uint32(0); n < b.nblocks; n++ {
		if b.bits.Get(int(n)) {
			count++
		}
	}
	return count
}

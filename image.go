package ospfs

import "encoding/binary"

// Image wraps a caller-owned byte buffer and interprets it as an OSPFS
// layout. It never allocates or copies the backing buffer: Mount receives a
// mutable reference and keeps only a slice header over it for the lifetime
// of the mount.
type Image struct {
	buf          []byte
	super        Superblock
	bitmap       *Bitmap
	dirNlinkMode DirNlinkMode
}

// Mount interprets buf as an OSPFS image, validating the superblock magic
// before returning. buf is retained by reference, not copied.
func Mount(buf []byte) (*Image, DriverError) {
	if len(buf) < BlockSize*FirstBitmapBlock {
		return nil, ErrFileSystemCorrupted.WithMessage("buffer too small to hold a superblock")
	}

	super := Superblock{
		Magic:     binary.LittleEndian.Uint32(buf[BlockSize*SuperblockNumber:]),
		NBlocks:   binary.LittleEndian.Uint32(buf[BlockSize*SuperblockNumber+4:]),
		NInodes:   binary.LittleEndian.Uint32(buf[BlockSize*SuperblockNumber+8:]),
		FirstInoB: binary.LittleEndian.Uint32(buf[BlockSize*SuperblockNumber+12:]),
	}

	if super.Magic != Magic {
		return nil, ErrFileSystemCorrupted.WithMessage("superblock magic mismatch")
	}
	if uint64(super.NBlocks)*BlockSize > uint64(len(buf)) {
		return nil, ErrFileSystemCorrupted.WithMessage("nblocks exceeds buffer length")
	}

	img := &Image{buf: buf, super: super}
	bitmapBlocks := super.FirstInoB - FirstBitmapBlock
	img.bitmap = newBitmap(img, FirstBitmapBlock, bitmapBlocks, super.NBlocks)
	return img, nil
}

// NBlocks returns the total number of blocks in the image, as recorded in
// the superblock.
func (img *Image) NBlocks() uint32 { return img.super.NBlocks }

// NInodes returns the total number of inode slots in the image.
func (img *Image) NInodes() uint32 { return img.super.NInodes }

// FirstDataBlock returns the first block number available to the allocator:
// the block immediately past the end of the inode table.
func (img *Image) FirstDataBlock() uint32 {
	return img.super.FirstInoB + inodeTableBlocks(img.super.NInodes)
}

// Bitmap returns the image's free-block allocator.
func (img *Image) Bitmap() *Bitmap { return img.bitmap }

// block returns a bounds-checked view of block n. An out-of-range n is a
// programming error and panics rather than returning an error.
func (img *Image) block(n uint32) []byte {
	if uint64(n+1)*BlockSize > uint64(len(img.buf)) {
		panic("ospfs: block index out of range")
	}
	start := uint64(n) * BlockSize
	return img.buf[start : start+BlockSize]
}

// sizeToNBlocks returns ceil(s / BlockSize).
func sizeToNBlocks(s uint32) uint32 {
	return (s + BlockSize - 1) / BlockSize
}

// readBlockNumber reads the little-endian uint32 at index idx (0-based,
// counted in 4-byte slots) within block n.
func (img *Image) readBlockNumber(n uint32, idx int) uint32 {
	blk := img.block(n)
	return binary.LittleEndian.Uint32(blk[idx*4:])
}

// writeBlockNumber writes value as a little-endian uint32 at index idx
// (0-based, counted in 4-byte slots) within block n.
func (img *Image) writeBlockNumber(n uint32, idx int, value uint32) {
	blk := img.block(n)
	binary.LittleEndian.PutUint32(blk[idx*4:], value)
}

// zeroBlock clears block n to all zero bytes.
func (img *Image) zeroBlock(n uint32) {
	blk := img.block(n)
	for i := range blk {
		blk[i] = 0
	}
}

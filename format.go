package ospfs

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"
)

// isValidBlockAndInodeCount rejects image geometries too small to hold a
// boot block, superblock, at least one bitmap block, and at least one
// inode-table block, or whose inode table would overrun nblocks.
func isValidBlockAndInodeCount(nblocks, ninodes uint32) bool {
	if nblocks < 8 || ninodes < 2 {
		return false
	}
	bitmapBlocks := getBitmapSizeInBlocks(nblocks)
	firstInoB := FirstBitmapBlock + bitmapBlocks
	tableBlocks := inodeTableBlocks(ninodes)
	return uint64(firstInoB+tableBlocks) < uint64(nblocks)
}

// getBitmapSizeInBlocks returns the number of blocks needed to hold one bit
// per block for nblocks blocks.
func getBitmapSizeInBlocks(nblocks uint32) uint32 {
	bits := nblocks
	bytesNeeded := (bits + 7) / 8
	return (bytesNeeded + BlockSize - 1) / BlockSize
}

// FormatImage writes a fresh OSPFS layout into buf: boot block, superblock,
// free bitmap, inode table (all slots free), and a root directory (inode 1)
// containing only "." and "..", grounded on unixv1/format.go's
// bytewriter-based sequential serialization of the superblock record.
//
// buf must be at least nblocks*BlockSize bytes long; FormatImage never
// grows it.
func FormatImage(buf []byte, nblocks, ninodes uint32) DriverError {
	if !isValidBlockAndInodeCount(nblocks, ninodes) {
		return ErrInvalidArgument.WithMessage("nblocks/ninodes combination is too small or inconsistent")
	}
	if uint64(len(buf)) < uint64(nblocks)*BlockSize {
		return ErrInvalidArgument.WithMessage("buffer too small for requested block count")
	}

	for i := range buf {
		buf[i] = 0
	}

	bitmapBlocks := getBitmapSizeInBlocks(nblocks)
	firstInoB := FirstBitmapBlock + bitmapBlocks

	superRegion := buf[BlockSize*SuperblockNumber : BlockSize*SuperblockNumber+16]
	w := bytewriter.New(superRegion)
	binary.Write(w, binary.LittleEndian, uint32(Magic))
	binary.Write(w, binary.LittleEndian, nblocks)
	binary.Write(w, binary.LittleEndian, ninodes)
	binary.Write(w, binary.LittleEndian, firstInoB)

	img, err := Mount(buf)
	if err != nil {
		return err
	}

	// Every block up to the first data block is permanently reserved: mark
	// its bitmap bit 0 (allocated). Every other block starts free (bit 1).
	firstData := img.FirstDataBlock()
	for n := uint32(0); n < nblocks; n++ {
		img.bitmap.bits.Set(int(n), n >= firstData)
	}

	root, err := img.InodeAt(1)
	if err != nil {
		return err
	}
	root.initFree()
	root.setFType(FtypeDirectory)
	root.setNLink(1)

	return nil
}

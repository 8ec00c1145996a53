package ospfs

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Check walks every live inode and cross-validates it against the free
// bitmap and the directory-entry consistency rules as a callable function.
// It never stops at the first problem: every violation found is appended,
// the way a real fsck reports everything wrong in one pass.
func Check(img *Image) error {
	var result *multierror.Error

	seen := make(map[uint32]uint32) // block number -> inode number that claims it
	claim := func(owner uint32, block uint32) {
		if block == 0 {
			return
		}
		if img.Bitmap().IsFree(block) {
			result = multierror.Append(result, fmt.Errorf(
				"inode %d references block %d, but its bitmap bit is free", owner, block))
		}
		if prevOwner, ok := seen[block]; ok && prevOwner != owner {
			result = multierror.Append(result, fmt.Errorf(
				"block %d is referenced by both inode %d and inode %d", block, prevOwner, owner))
		}
		seen[block] = owner
	}

	for n := uint32(0); n < img.FirstDataBlock(); n++ {
		if !img.Bitmap().IsFree(n) {
			continue
		}
		result = multierror.Append(result, fmt.Errorf(
			"reserved block %d is marked free in the bitmap", n))
	}

	for i := uint32(1); i < img.NInodes(); i++ {
		n, err := img.InodeAt(i)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if n.IsFree() {
			continue
		}

		switch n.FType() {
		case FtypeRegular, FtypeDirectory:
			checkBlockTree(img, n, &claim)
		case FtypeSymlink:
			// Symlinks store their payload inline; no blocks to check.
		default:
			result = multierror.Append(result, fmt.Errorf(
				"inode %d has nlink>0 but an unrecognized ftype %d", i, n.FType()))
		}

		if n.FType() == FtypeDirectory {
			checkDirectoryEntries(img, n, i, &result)
		}
	}

	if result == nil {
		return nil
	}
	return result
}

// checkBlockTree walks every block index referenced by n's size and claims
// its data block and any indirect/doubly-indirect scaffolding, each
// scaffolding block claimed exactly once regardless of how many data
// blocks it covers.
func checkBlockTree(img *Image, n *Inode, claim *func(owner, block uint32)) {
	nblocks := sizeToNBlocks(n.Size())
	claimedLeaves := make(map[uint32]bool)
	claimedIndirect2 := false

	for k := uint32(0); k < nblocks; k++ {
		(*claim)(n.Num(), blockNumberForIndex(n, img, k))

		if indirIndex(k) < 0 {
			continue
		}

		var leaf uint32
		if indir2Index(k) >= 0 {
			if !claimedIndirect2 {
				(*claim)(n.Num(), n.Indirect2())
				claimedIndirect2 = true
			}
			leaf = img.readBlockNumber(n.Indirect2(), indir2Index(k))
		} else {
			leaf = n.Indirect()
		}
		if !claimedLeaves[leaf] {
			(*claim)(n.Num(), leaf)
			claimedLeaves[leaf] = true
		}
	}
}

// checkDirectoryEntries verifies every live slot of directory inode n is
// either empty or names a currently-live inode.
func checkDirectoryEntries(img *Image, dir *Inode, dirNum uint32, result **multierror.Error) {
	nslots := dir.Size() / DirentSize
	for slot := uint32(0); slot < nslots; slot++ {
		d, err := direntAt(img, dir, slot)
		if err != nil {
			*result = multierror.Append(*result, err)
			continue
		}
		if d.IsEmpty() {
			continue
		}
		target, err := img.InodeAt(d.Ino())
		if err != nil {
			*result = multierror.Append(*result, fmt.Errorf(
				"directory %d slot %d names out-of-range inode %d", dirNum, slot, d.Ino()))
			continue
		}
		if target.IsFree() {
			*result = multierror.Append(*result, fmt.Errorf(
				"directory %d slot %d (%q) names free inode %d", dirNum, slot, d.Name(), d.Ino()))
		}
	}
}

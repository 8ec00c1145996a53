package ospfs

// Block-index decomposition helpers, grounded line-for-line on
// ospfsmod.c's indir2_index, indir_index, and direct_index. All three are
// total and deterministic over k >= 0.

// indir2Index reports which slot of the doubly-indirect block's own index
// block holds the pointer chain for file block k, or -1 if k doesn't reach
// the doubly-indirect tier.
func indir2Index(k uint32) int {
	if k < NumDirect+NumIndirect {
		return -1
	}
	return int((k - NumDirect - NumIndirect) / NumIndirect)
}

// indirIndex reports which slot of "the" indirect block holds the pointer
// for file block k: within the single-indirect block if k is in that tier,
// or within the leaf indirect block reached via indirect2 otherwise. It
// returns -1 for k in the direct tier.
func indirIndex(k uint32) int {
	if k < NumDirect {
		return -1
	}
	if k < NumDirect+NumIndirect {
		return int(k - NumDirect)
	}
	return int((k - NumDirect - NumIndirect) % NumIndirect)
}

// directIndex reports the slot within the direct array (if k is in that
// tier) or within whichever leaf indirect block holds k otherwise.
func directIndex(k uint32) int {
	if k < NumDirect {
		return int(k)
	}
	if k < NumDirect+NumIndirect {
		return int(k - NumDirect)
	}
	return int((k - NumDirect - NumIndirect) % NumIndirect)
}

// blockNumberForOffset returns the physical block number holding the byte
// at file-relative offset o, or 0 if o is beyond the inode's size or the
// inode is a symlink. A 0 return when o < size indicates a corrupt image,
// which callers surface as ErrIOFailed.
func blockNumberForOffset(n *Inode, img *Image, o uint32) uint32 {
	if n.FType() == FtypeSymlink || o >= n.Size() {
		return 0
	}
	k := o / BlockSize
	return blockNumberForIndex(n, img, k)
}

// blockNumberForIndex resolves file block index k to a physical block
// number via the three-tier direct/indirect/doubly-indirect addressing
// scheme, without any bounds check against the inode's size (callers that
// need the size check use
// blockNumberForOffset; add_block/remove_block operate on k directly).
func blockNumberForIndex(n *Inode, img *Image, k uint32) uint32 {
	switch {
	case k < NumDirect:
		return n.Direct(directIndex(k))
	case k < NumDirect+NumIndirect:
		ind := n.Indirect()
		if ind == 0 {
			return 0
		}
		return img.readBlockNumber(ind, indirIndex(k))
	case k < MaxFileBlocks:
		ind2 := n.Indirect2()
		if ind2 == 0 {
			return 0
		}
		leaf := img.readBlockNumber(ind2, indir2Index(k))
		if leaf == 0 {
			return 0
		}
		return img.readBlockNumber(leaf, indirIndex(k))
	default:
		return 0
	}
}

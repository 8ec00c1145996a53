package ospfs

// Size-change transaction, grounded on change_size/add_block/
// remove_block in ospfsmod.c.

// ChangeSize grows or shrinks inode to newSize, one block at a time. A
// growth failure (no-space) rolls back to the pre-call state, byte for
// byte, per Testable Property 3. A shrink failure (io-error, meaning a
// structural inconsistency was found) aborts immediately with no further
// rollback, since the image is already inconsistent.
func ChangeSize(img *Image, n *Inode, newSize uint32) DriverError {
	oldSize := n.Size()
	oldNBlocks := sizeToNBlocks(oldSize)
	newNBlocks := sizeToNBlocks(newSize)

	cur := oldNBlocks
	for cur < newNBlocks {
		if err := addBlock(img, n); err != nil {
			for cur > oldNBlocks {
				if rmErr := removeBlock(img, n); rmErr != nil {
					return rmErr
				}
				cur--
			}
			n.setSize(oldSize)
			return err
		}
		cur++
	}
	for cur > newNBlocks {
		if err := removeBlock(img, n); err != nil {
			return err
		}
		cur--
	}

	n.setSize(newSize)
	return nil
}

// addBlock allocates the single next block (index k = current block count)
// for n, allocating whatever indirect2/leaf-indirect scaffolding is missing
// along the way. On failure it releases only the scaffolding it allocated
// in this call -- never blocks that were already present -- and leaves n's
// pointers unchanged.
func addBlock(img *Image, n *Inode) DriverError {
	k := sizeToNBlocks(n.Size())
	if k >= MaxFileBlocks {
		return ErrNoSpaceOnDevice.WithMessage("file would exceed maximum representable size")
	}

	bm := img.Bitmap()
	var allocated []uint32 // rollback list, in allocation order
	rollback := func() {
		for i := len(allocated) - 1; i >= 0; i-- {
			bm.Free(allocated[i])
		}
	}

	needIndirect2 := indir2Index(k) >= 0
	needLeafIndirect := indirIndex(k) >= 0

	var indirect2Block uint32
	indirect2Existing := true
	if needIndirect2 {
		indirect2Block = n.Indirect2()
		if indirect2Block == 0 {
			blk, ok := bm.Allocate()
			if !ok {
				return ErrNoSpaceOnDevice
			}
			img.zeroBlock(blk)
			indirect2Block = blk
			indirect2Existing = false
			allocated = append(allocated, blk)
		}
	}

	var leafIndirectBlock uint32
	leafExisting := true
	if needLeafIndirect {
		if needIndirect2 {
			leafIndirectBlock = img.readBlockNumber(indirect2Block, indir2Index(k))
		} else {
			leafIndirectBlock = n.Indirect()
		}
		if leafIndirectBlock == 0 {
			blk, ok := bm.Allocate()
			if !ok {
				rollback()
				return ErrNoSpaceOnDevice
			}
			img.zeroBlock(blk)
			leafIndirectBlock = blk
			leafExisting = false
			allocated = append(allocated, blk)
		}
	}

	dataBlock, ok := bm.Allocate()
	if !ok {
		rollback()
		return ErrNoSpaceOnDevice
	}
	img.zeroBlock(dataBlock)
	allocated = append(allocated, dataBlock)

	// All allocations succeeded: publish pointers bottom-up, then the new
	// size, so a reader can never observe a size larger than what the
	// pointers actually reach.
	if needLeafIndirect {
		img.writeBlockNumber(leafIndirectBlock, directIndex(k), dataBlock)
	} else {
		n.setDirect(directIndex(k), dataBlock)
	}
	if needIndirect2 && !leafExisting {
		img.writeBlockNumber(indirect2Block, indir2Index(k), leafIndirectBlock)
	}
	if needIndirect2 && !indirect2Existing {
		n.setIndirect2(indirect2Block)
	}
	if needLeafIndirect && !needIndirect2 && !leafExisting {
		n.setIndirect(leafIndirectBlock)
	}

	n.setSize((k + 1) * BlockSize)
	return nil
}

// removeBlock frees the last block (index k = current block count - 1),
// additionally freeing and unlinking the leaf indirect block if k was its
// only referenced entry, and the doubly-indirect block if k was likewise
// its only chain.
func removeBlock(img *Image, n *Inode) DriverError {
	nblocks := sizeToNBlocks(n.Size())
	if nblocks == 0 {
		return ErrIOFailed.WithMessage("remove_block called on empty file")
	}
	k := nblocks - 1
	bm := img.Bitmap()

	needIndirect2 := indir2Index(k) >= 0
	needLeafIndirect := indirIndex(k) >= 0

	var leafIndirectBlock uint32
	var indirect2Block uint32
	if needIndirect2 {
		indirect2Block = n.Indirect2()
		if indirect2Block == 0 {
			return ErrIOFailed.WithMessage("missing expected indirect2 block")
		}
		leafIndirectBlock = img.readBlockNumber(indirect2Block, indir2Index(k))
	} else if needLeafIndirect {
		leafIndirectBlock = n.Indirect()
	}
	if needLeafIndirect && leafIndirectBlock == 0 {
		return ErrIOFailed.WithMessage("missing expected indirect block")
	}

	var dataBlock uint32
	if needLeafIndirect {
		dataBlock = img.readBlockNumber(leafIndirectBlock, directIndex(k))
	} else {
		dataBlock = n.Direct(directIndex(k))
	}
	if dataBlock == 0 {
		return ErrIOFailed.WithMessage("missing expected data block")
	}
	bm.Free(dataBlock)
	if needLeafIndirect {
		img.writeBlockNumber(leafIndirectBlock, directIndex(k), 0)
	} else {
		n.setDirect(directIndex(k), 0)
	}

	if needLeafIndirect && directIndex(k) == 0 {
		bm.Free(leafIndirectBlock)
		if needIndirect2 {
			img.writeBlockNumber(indirect2Block, indir2Index(k), 0)
		} else {
			n.setIndirect(0)
		}

		if needIndirect2 && indir2Index(k) == 0 {
			bm.Free(indirect2Block)
			n.setIndirect2(0)
		}
	}

	n.setSize(k * BlockSize)
	return nil
}

package ospfs

import "encoding/binary"

// Dirent is a view over one directory-entry slot: a 4-byte ino followed
// by a zero-terminated name buffer.
type Dirent struct {
	raw []byte
}

// Ino returns the slot's inode number; 0 means the slot is empty.
func (d Dirent) Ino() uint32 { return binary.LittleEndian.Uint32(d.raw[0:4]) }

func (d Dirent) setIno(v uint32) { binary.LittleEndian.PutUint32(d.raw[0:4], v) }

// Name returns the slot's name, decoded up to the first NUL byte.
func (d Dirent) Name() string {
	buf := d.raw[4:]
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

func (d Dirent) setName(name string) {
	buf := d.raw[4:]
	for i := range buf {
		buf[i] = 0
	}
	copy(buf, name)
}

// IsEmpty reports whether this slot is unused.
func (d Dirent) IsEmpty() bool { return d.Ino() == 0 }

// direntAt returns a view of the directory-entry slot at file-relative
// offset `slot*DirentSize` within dir's data, or an error if the block it
// falls in is missing (a corrupt image for an offset < dir.Size()).
func direntAt(img *Image, dir *Inode, slot uint32) (Dirent, DriverError) {
	offset := slot * DirentSize
	blockNum := blockNumberForOffset(dir, img, offset)
	if blockNum == 0 {
		return Dirent{}, ErrIOFailed.WithMessage("directory references a missing block")
	}
	blk := img.block(blockNum)
	within := offset % BlockSize
	return Dirent{raw: blk[within : within+DirentSize]}, nil
}

// slotsPerBlock is the number of directory-entry slots held in one block.
const slotsPerBlock = BlockSize / DirentSize

// FindEntry scans dir's live slots for one named `name`, returning the
// matching Dirent or ErrNotFound.
func FindEntry(img *Image, dir *Inode, name string) (Dirent, DriverError) {
	nslots := dir.Size() / DirentSize
	for slot := uint32(0); slot < nslots; slot++ {
		d, err := direntAt(img, dir, slot)
		if err != nil {
			return Dirent{}, err
		}
		if d.IsEmpty() {
			continue
		}
		if d.Name() == name {
			return d, nil
		}
	}
	return Dirent{}, ErrNotFound
}

// CreateBlankEntry returns the first empty slot in dir, growing dir by one
// block (via ChangeSize) if none exists. The new block's slots are
// guaranteed zero because addBlock zeroes every allocation.
func CreateBlankEntry(img *Image, dir *Inode) (Dirent, DriverError) {
	nslots := dir.Size() / DirentSize
	for slot := uint32(0); slot < nslots; slot++ {
		d, err := direntAt(img, dir, slot)
		if err != nil {
			return Dirent{}, err
		}
		if d.IsEmpty() {
			return d, nil
		}
	}

	oldSize := dir.Size()
	if err := ChangeSize(img, dir, oldSize+BlockSize); err != nil {
		return Dirent{}, err
	}
	return direntAt(img, dir, oldSize/DirentSize)
}

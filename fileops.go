package ospfs

import "errors"

// DirNlinkMode selects how a directory's own nlink is maintained across
// link/unlink/symlink.
//
// ospfsmod.c unconditionally decrements the parent directory's nlink on
// every unlink and increments it on symlink creation but not on regular
// file creation -- inconsistent with conventional Unix semantics, where a
// directory's nlink counts "." plus its subdirectory entries. Rather than
// guess intent, both behaviors are implemented; SourceCompatible
// reproduces the original exactly and is the default, so existing images
// round-trip byte-for-byte.
type DirNlinkMode int

const (
	// SourceCompatible reproduces ospfsmod.c's nlink bookkeeping literally.
	SourceCompatible DirNlinkMode = iota
	// Conventional only touches a directory's own nlink for subdirectory
	// entries, which this package's public API never creates (mkdir isn't
	// part of it) -- so under this mode a directory's nlink is
	// never adjusted by Unlink/Symlink/Create at all.
	Conventional
)

// SetDirNlinkMode changes how directory nlink bookkeeping behaves. The
// default, set at Mount, is SourceCompatible.
func (img *Image) SetDirNlinkMode(mode DirNlinkMode) { img.dirNlinkMode = mode }

// Read copies up to count bytes starting at offset from n into out,
// returning the number of bytes actually transferred. A block
// number of 0 within [0, size) indicates a corrupt image (ErrIOFailed).
func Read(img *Image, n *Inode, offset uint32, out []byte) (int, DriverError) {
	size := n.Size()
	if offset >= size {
		return 0, nil
	}
	count := uint32(len(out))
	if offset+count > size {
		count = size - offset
	}

	var written uint32
	for written < count {
		blockNum := blockNumberForOffset(n, img, offset+written)
		if blockNum == 0 {
			return int(written), ErrIOFailed.WithMessage("read hit an unallocated block within file bounds")
		}
		within := (offset + written) % BlockSize
		chunk := count - written
		if chunk > BlockSize-within {
			chunk = BlockSize - within
		}
		blk := img.block(blockNum)
		copy(out[written:written+chunk], blk[within:within+chunk])
		written += chunk
	}
	return int(written), nil
}

// Write copies in into n starting at offset (or at n.Size() if append is
// true), extending the file via ChangeSize first if necessary. Writes
// never straddle the block-map resolution of a single
// block: each segment is clamped to BlockSize and to offset%BlockSize.
func Write(img *Image, n *Inode, offset uint32, in []byte, append bool) (int, DriverError) {
	if append {
		offset = n.Size()
	}

	count := uint32(len(in))
	newSize := offset + count
	if newSize < offset {
		return 0, ErrIOFailed.WithMessage("offset+count overflowed 32 bits")
	}

	if newSize > n.Size() {
		if err := ChangeSize(img, n, newSize); err != nil {
			return 0, err
		}
	}

	var written uint32
	for written < count {
		blockNum := blockNumberForOffset(n, img, offset+written)
		if blockNum == 0 {
			return int(written), ErrIOFailed.WithMessage("write hit an unallocated block within file bounds")
		}
		within := (offset + written) % BlockSize
		chunk := count - written
		if chunk > BlockSize-within {
			chunk = BlockSize - within
		}
		blk := img.block(blockNum)
		copy(blk[within:within+chunk], in[written:written+chunk])
		written += chunk
	}
	return int(written), nil
}

// findFreeInode scans inode slots [2, ninodes) for one with nlink==0.
// Inode 0 is permanently reserved and inode 1 is the root directory;
// neither is ever considered, even once the root's nlink has reached 0.
func findFreeInode(img *Image) (*Inode, DriverError) {
	for i := uint32(2); i < img.NInodes(); i++ {
		n, err := img.InodeAt(i)
		if err != nil {
			return nil, err
		}
		if n.IsFree() {
			return n, nil
		}
	}
	return nil, ErrNoSpaceOnDevice.WithMessage("no free inode slots")
}

// preflightCreate validates name and absence before allocating anything,
// shared by Create, Link, and Symlink.
func preflightCreate(img *Image, dir *Inode, name string) DriverError {
	if len(name) == 0 || len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	if _, err := FindEntry(img, dir, name); err == nil {
		return ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// bumpDirNlink applies the directory-nlink-accounting decision for
// SourceCompatible mode: delta is +1 on symlink creation, -1 on unlink,
// and never applied for regular-file creation.
func (img *Image) bumpDirNlink(dir *Inode, delta int32) {
	if img.dirNlinkMode != SourceCompatible {
		return
	}
	if delta > 0 {
		dir.IncNLink()
	} else {
		dir.DecNLink()
	}
}

// Create allocates a new regular file named name in dir.
func Create(img *Image, dir *Inode, name string, mode uint32) (*Inode, DriverError) {
	if err := preflightCreate(img, dir, name); err != nil {
		return nil, err
	}
	n, err := findFreeInode(img)
	if err != nil {
		return nil, err
	}

	slot, err := CreateBlankEntry(img, dir)
	if err != nil {
		return nil, err
	}

	n.initRegular(mode)
	slot.setIno(n.Num())
	slot.setName(name)
	return n, nil
}

// Unlink removes name from dir. If the target inode's nlink
// reaches zero and it isn't a symlink, its blocks are released via
// ChangeSize(..., 0).
func Unlink(img *Image, dir *Inode, name string) DriverError {
	d, err := FindEntry(img, dir, name)
	if err != nil {
		return err
	}

	n, err := img.InodeAt(d.Ino())
	if err != nil {
		return err
	}

	d.setIno(0)
	n.DecNLink()
	img.bumpDirNlink(dir, -1)

	if n.IsFree() {
		if n.FType() != FtypeSymlink {
			if err := ChangeSize(img, n, 0); err != nil {
				return err
			}
		}
		n.initFree()
	}
	return nil
}

// Link creates a new directory entry named name in dir pointing at the
// already-live inode existing: a hard link.
func Link(img *Image, dir *Inode, existing *Inode, name string) DriverError {
	if err := preflightCreate(img, dir, name); err != nil {
		return err
	}
	if existing.NLink() == ^uint32(0) {
		return ErrTooManyLinks
	}

	slot, err := CreateBlankEntry(img, dir)
	if err != nil {
		return err
	}

	slot.setIno(existing.Num())
	slot.setName(name)
	existing.IncNLink()
	return nil
}

// Symlink creates a new symlink named name in dir with the given target.
// A conditional target ("?root:other") is re-encoded per
// symlink.go's encodeSymlinkPayload.
func Symlink(img *Image, dir *Inode, name string, target string) (*Inode, DriverError) {
	if err := preflightCreate(img, dir, name); err != nil {
		return nil, err
	}

	payload, err := encodeSymlinkPayload(target)
	if err != nil {
		return nil, err
	}

	n, err := findFreeInode(img)
	if err != nil {
		return nil, err
	}

	slot, err := CreateBlankEntry(img, dir)
	if err != nil {
		return nil, err
	}

	n.initFree()
	n.setFType(FtypeSymlink)
	n.setNLink(1)
	n.setSize(uint32(len(payload)))
	copy(n.symlinkPayload(), payload)

	slot.setIno(n.Num())
	slot.setName(name)
	img.bumpDirNlink(dir, +1)
	return n, nil
}

// FollowLink decodes a symlink inode's payload into the path the caller
// should resolve next, choosing the root-path branch of
// a conditional symlink when isRoot is true.
func FollowLink(n *Inode, isRoot bool) (string, DriverError) {
	payload := n.symlinkPayload()[:n.Size()]
	decoded, err := decodeSymlinkPayload(payload, isRoot)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// Setattr applies a size and/or mode change to n, grounded on
// ospfs_notify_change. Pass hasSize/hasMode false to leave that
// attribute untouched.
func Setattr(img *Image, n *Inode, newSize uint32, hasSize bool, newMode uint32, hasMode bool) DriverError {
	if hasSize {
		if n.FType() == FtypeDirectory {
			return ErrPermissionDenied.WithMessage("cannot truncate a directory")
		}
		if err := ChangeSize(img, n, newSize); err != nil {
			return err
		}
	}
	if hasMode {
		n.SetMode(newMode)
	}
	return nil
}

// DirEntryKind classifies a readdir result, mirroring ftype for display
// purposes without exposing the raw FileType constant at the CLI boundary.
type DirEntryKind int

const (
	KindRegular DirEntryKind = iota
	KindDirectory
	KindSymlink
)

func kindFromFType(ft FileType) DirEntryKind {
	switch ft {
	case FtypeDirectory:
		return KindDirectory
	case FtypeSymlink:
		return KindSymlink
	default:
		return KindRegular
	}
}

// ReaddirEntry is one entry produced by Readdir.
type ReaddirEntry struct {
	Name   string
	Ino    uint32
	Kind   DirEntryKind
	Cursor uint32 // cursor value to pass back in for the *next* call
}

// Readdir produces the entry at cursor: cursor 0 is the
// synthetic ".", cursor 1 is the synthetic "..", and cursor >= 2 maps to
// directory slot (cursor-2), skipping empty slots by advancing. ok is
// false once cursor has walked past the end of the directory.
func Readdir(img *Image, dir *Inode, parentIno uint32, cursor uint32) (ReaddirEntry, bool, DriverError) {
	if cursor == 0 {
		return ReaddirEntry{Name: ".", Ino: dir.Num(), Kind: KindDirectory, Cursor: 1}, true, nil
	}
	if cursor == 1 {
		return ReaddirEntry{Name: "..", Ino: parentIno, Kind: KindDirectory, Cursor: 2}, true, nil
	}

	nslots := dir.Size() / DirentSize
	for slot := cursor - 2; slot < nslots; slot++ {
		d, err := direntAt(img, dir, slot)
		if err != nil {
			return ReaddirEntry{}, false, err
		}
		if d.IsEmpty() {
			continue
		}
		n, err := img.InodeAt(d.Ino())
		if err != nil {
			return ReaddirEntry{}, false, err
		}
		return ReaddirEntry{
			Name:   d.Name(),
			Ino:    d.Ino(),
			Kind:   kindFromFType(n.FType()),
			Cursor: slot + 3,
		}, true, nil
	}
	return ReaddirEntry{}, false, nil
}

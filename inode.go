package ospfs

import "encoding/binary"

// inodeOffset returns the byte offset of inode number i within the image,
// or ok=false if i is out of range. Inode 0 is reserved but is still
// addressable -- callers that must reject it do so explicitly.
func (img *Image) inodeOffset(i uint32) (int, bool) {
	if i >= img.super.NInodes {
		return 0, false
	}
	base := uint64(img.super.FirstInoB) * BlockSize
	return int(base + uint64(i)*InodeSize), true
}

// Inode is a live view over one 64-byte inode record within the image's
// backing buffer: reads and writes through it mutate the image directly,
// there's no separate copy held anywhere else.
type Inode struct {
	img *Image
	num uint32
	raw []byte
}

// InodeAt returns a view of inode i, or ErrArgumentOutOfRange if i is out
// of range, since Go callers expect an explicit error rather than a
// sentinel value.
func (img *Image) InodeAt(i uint32) (*Inode, DriverError) {
	off, ok := img.inodeOffset(i)
	if !ok {
		return nil, ErrArgumentOutOfRange.WithMessage("inode number out of range")
	}
	return &Inode{img: img, num: i, raw: img.buf[off : off+InodeSize]}, nil
}

// Num returns the inode number this view addresses.
func (n *Inode) Num() uint32 { return n.num }

func (n *Inode) Size() uint32       { return binary.LittleEndian.Uint32(n.raw[0:4]) }
func (n *Inode) FType() FileType    { return FileType(binary.LittleEndian.Uint32(n.raw[4:8])) }
func (n *Inode) NLink() uint32      { return binary.LittleEndian.Uint32(n.raw[8:12]) }
func (n *Inode) Mode() uint32       { return binary.LittleEndian.Uint32(n.raw[12:16]) }

func (n *Inode) setSize(v uint32)  { binary.LittleEndian.PutUint32(n.raw[0:4], v) }
func (n *Inode) setFType(v FileType) {
	binary.LittleEndian.PutUint32(n.raw[4:8], uint32(v))
}
func (n *Inode) setNLink(v uint32) { binary.LittleEndian.PutUint32(n.raw[8:12], v) }
func (n *Inode) setMode(v uint32)  { binary.LittleEndian.PutUint32(n.raw[12:16], v) }

// IncNLink increments the link count by one.
func (n *Inode) IncNLink() { n.setNLink(n.NLink() + 1) }

// DecNLink decrements the link count by one. Callers must not call this on
// an inode whose nlink is already 0.
func (n *Inode) DecNLink() { n.setNLink(n.NLink() - 1) }

// SetMode changes the inode's mode bits. mode is opaque to the core.
func (n *Inode) SetMode(mode uint32) { n.setMode(mode) }

// unionOffset is the byte offset, within raw, where the direct/indirect/
// indirect2 union region begins (after the 16-byte header).
const unionOffset = 16

// Direct returns direct block slot k (0 <= k < NumDirect).
func (n *Inode) Direct(k int) uint32 {
	return binary.LittleEndian.Uint32(n.raw[unionOffset+k*4:])
}

func (n *Inode) setDirect(k int, v uint32) {
	binary.LittleEndian.PutUint32(n.raw[unionOffset+k*4:], v)
}

// Indirect returns the inode's single-indirect block pointer (0 = none).
func (n *Inode) Indirect() uint32 {
	return binary.LittleEndian.Uint32(n.raw[unionOffset+NumDirect*4:])
}

func (n *Inode) setIndirect(v uint32) {
	binary.LittleEndian.PutUint32(n.raw[unionOffset+NumDirect*4:], v)
}

// Indirect2 returns the inode's doubly-indirect block pointer (0 = none).
func (n *Inode) Indirect2() uint32 {
	return binary.LittleEndian.Uint32(n.raw[unionOffset+NumDirect*4+4:])
}

func (n *Inode) setIndirect2(v uint32) {
	binary.LittleEndian.PutUint32(n.raw[unionOffset+NumDirect*4+4:], v)
}

// symlinkPayload returns the raw bytes of the union region, used by symlink
// inodes to hold their zero-terminated (and possibly conditional) target
// path in place of direct/indirect/indirect2.
func (n *Inode) symlinkPayload() []byte {
	return n.raw[unionOffset : unionOffset+NumDirect*4+8]
}

// initFree resets the inode to the free state: nlink=0, ftype=free, and the
// union region zeroed.
func (n *Inode) initFree() {
	n.setSize(0)
	n.setFType(FtypeFree)
	n.setNLink(0)
	n.setMode(0)
	for i := range n.raw[unionOffset:] {
		n.raw[unionOffset+i] = 0
	}
}

// initRegular initializes a freshly-allocated slot as an empty regular file.
func (n *Inode) initRegular(mode uint32) {
	n.setSize(0)
	n.setFType(FtypeRegular)
	n.setNLink(1)
	n.setMode(mode)
	for i := range n.raw[unionOffset:] {
		n.raw[unionOffset+i] = 0
	}
}

// IsFree reports whether this inode slot is unused: a free inode is
// identified by nlink == 0.
func (n *Inode) IsFree() bool { return n.NLink() == 0 }

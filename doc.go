// Package ospfs implements an in-memory, block-addressed, POSIX-style file
// system image held entirely within a single contiguous byte buffer.
//
// The package is the engine only: a free-block bitmap allocator, an inode
// data model with three-tier (direct / indirect / doubly-indirect) block
// addressing, an all-or-nothing size-change transaction, a flat directory
// layer, symbolic links (including a conditional-link variant), and the
// hard-link lifecycle. It never owns the backing buffer -- Mount and
// FormatImage both take a caller-supplied []byte and keep only a slice
// header over it.
package ospfs

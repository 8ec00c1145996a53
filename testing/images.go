// Package testing holds exported fixture helpers for building OSPFS images
// in tests: a small set of functions other packages call instead of
// duplicating FormatImage boilerplate.
package testing

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/dargueta/ospfs"
	"github.com/dargueta/ospfs/utilities/compression"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// NewFormattedImage builds a fresh in-memory buffer of nblocks blocks,
// formats it with FormatImage, and mounts it, failing t on any error. It
// returns both the mounted Image and the raw buffer backing it, since
// tests frequently want to inspect bytes directly (bitmap bits, inode
// fields) alongside calling the core's operations.
func NewFormattedImage(t *testing.T, nblocks, ninodes uint32) (*ospfs.Image, []byte) {
	t.Helper()

	buf := make([]byte, uint64(nblocks)*ospfs.BlockSize)
	require.Nil(t, ospfs.FormatImage(buf, nblocks, ninodes), "FormatImage failed")

	img, err := ospfs.Mount(buf)
	require.Nil(t, err, "Mount failed on a freshly-formatted image")
	return img, buf
}

// NewRandomBuffer returns n freshly-randomized bytes, for tests that need
// filler content distinguishable from the zeroed padding FormatImage and
// addBlock produce.
func NewRandomBuffer(t *testing.T, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return buf
}

// LoadCompressedImage decompresses a fixture previously produced by
// compression.CompressImage (RLE8 + gzip) into a fixed-size in-memory
// stream: writes to the returned stream never touch compressedImageBytes,
// and writing past its end is an error rather than a silent grow.
func LoadCompressedImage(
	t *testing.T, compressedImageBytes []byte, nblocks uint,
) io.ReadWriteSeeker {
	t.Helper()

	compressedBuf := bytes.NewBuffer(compressedImageBytes)
	require.Greater(t, len(compressedImageBytes), 0, "compressed image is empty")

	imageBytes, err := compression.DecompressImageToBytes(compressedBuf)
	require.NoError(t, err)

	require.Equal(
		t,
		nblocks*ospfs.BlockSize,
		uint(len(imageBytes)),
		"uncompressed image is wrong size",
	)
	return bytesextra.NewReadWriteSeeker(imageBytes)
}

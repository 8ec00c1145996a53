package ospfs_test

import (
	"testing"

	"github.com/dargueta/ospfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatImage_RejectsUndersizedBuffer(t *testing.T) {
	buf := make([]byte, 10)
	err := ospfs.FormatImage(buf, 64, 16)
	assert.Error(t, err)
}

func TestFormatImage_RejectsInvalidGeometry(t *testing.T) {
	buf := make([]byte, 64*ospfs.BlockSize)
	err := ospfs.FormatImage(buf, 4, 16)
	assert.ErrorIs(t, err, ospfs.ErrInvalidArgument)
}

func TestFormatImage_ProducesMountableImage(t *testing.T) {
	buf := make([]byte, 64*ospfs.BlockSize)
	require.Nil(t, ospfs.FormatImage(buf, 64, 16))

	img, err := ospfs.Mount(buf)
	require.Nil(t, err)
	assert.EqualValues(t, 64, img.NBlocks())
	assert.EqualValues(t, 16, img.NInodes())

	root, err := img.InodeAt(1)
	require.Nil(t, err)
	assert.Equal(t, ospfs.FtypeDirectory, root.FType())
	assert.EqualValues(t, 0, root.Size())
}

func TestFormatImage_ReservedBlocksAreAllocated(t *testing.T) {
	buf := make([]byte, 64*ospfs.BlockSize)
	require.Nil(t, ospfs.FormatImage(buf, 64, 16))

	img, err := ospfs.Mount(buf)
	require.Nil(t, err)

	for n := uint32(0); n < img.FirstDataBlock(); n++ {
		assert.False(t, img.Bitmap().IsFree(n), "reserved block %d should be allocated", n)
	}
	assert.True(t, img.Bitmap().IsFree(img.FirstDataBlock()), "first data block should be free")
}

func TestFormatImage_RejectsCorruptMagicOnMount(t *testing.T) {
	buf := make([]byte, 64*ospfs.BlockSize)
	require.Nil(t, ospfs.FormatImage(buf, 64, 16))
	buf[ospfs.BlockSize*ospfs.SuperblockNumber] ^= 0xff

	_, err := ospfs.Mount(buf)
	assert.ErrorIs(t, err, ospfs.ErrFileSystemCorrupted)
}

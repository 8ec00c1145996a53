package ospfs_test

import (
	"testing"

	"github.com/dargueta/ospfs"
	ospfstesting "github.com/dargueta/ospfs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario (c): indirect boundary.
func TestScenarioC_IndirectBoundary(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 4096, 16)
	root := rootOf(t, img)
	fileInode, err := ospfs.Create(img, root, "c", 0644)
	require.Nil(t, err)

	require.Nil(t, ospfs.ChangeSize(img, fileInode, 11*ospfs.BlockSize))
	assert.NotZero(t, fileInode.Indirect())
	assert.Zero(t, fileInode.Indirect2())

	require.Nil(t, ospfs.ChangeSize(img, fileInode, (ospfs.NumDirect+ospfs.NumIndirect+1)*ospfs.BlockSize))
	assert.NotZero(t, fileInode.Indirect2())
}

// Scenario (d): no-space rollback.
func TestScenarioD_NoSpaceRollback(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 64, 16)
	root := rootOf(t, img)
	fileInode, err := ospfs.Create(img, root, "d", 0644)
	require.Nil(t, err)

	// Consume free space down to exactly 10 blocks by growing a sink file.
	sink, err := ospfs.Create(img, root, "sink", 0644)
	require.Nil(t, err)
	for img.Bitmap().FreeBlockCount() > 10 {
		require.Nil(t, ospfs.ChangeSize(img, sink, sink.Size()+ospfs.BlockSize))
	}
	require.EqualValues(t, 10, img.Bitmap().FreeBlockCount())

	sizeBefore := fileInode.Size()
	freeBefore := img.Bitmap().FreeBlockCount()

	err = ospfs.ChangeSize(img, fileInode, 12*ospfs.BlockSize)
	assert.ErrorIs(t, err, ospfs.ErrNoSpaceOnDevice)
	assert.Equal(t, sizeBefore, fileInode.Size())
	assert.Equal(t, freeBefore, img.Bitmap().FreeBlockCount())
}

func TestChangeSize_ShrinkFreesBlocks(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 64, 16)
	root := rootOf(t, img)
	fileInode, err := ospfs.Create(img, root, "shrink", 0644)
	require.Nil(t, err)

	require.Nil(t, ospfs.ChangeSize(img, fileInode, 3*ospfs.BlockSize))
	freeAtThree := img.Bitmap().FreeBlockCount()

	require.Nil(t, ospfs.ChangeSize(img, fileInode, 0))
	assert.EqualValues(t, 0, fileInode.Size())
	assert.Equal(t, freeAtThree+3, img.Bitmap().FreeBlockCount())
}

func TestChangeSize_ExceedingMaxFileBlocksIsNoSpace(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 64, 16)
	root := rootOf(t, img)
	fileInode, err := ospfs.Create(img, root, "huge", 0644)
	require.Nil(t, err)

	err = ospfs.ChangeSize(img, fileInode, uint32(ospfs.MaxFileBlocks+1)*ospfs.BlockSize)
	assert.ErrorIs(t, err, ospfs.ErrNoSpaceOnDevice)
}

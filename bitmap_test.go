package ospfs_test

import (
	"testing"

	"github.com/dargueta/ospfs"
	ospfstesting "github.com/dargueta/ospfs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmap_AllocateIsFirstFitAscending(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 64, 16)
	bm := img.Bitmap()
	first := img.FirstDataBlock()

	n, ok := bm.Allocate()
	require.True(t, ok)
	assert.Equal(t, first, n)

	n2, ok := bm.Allocate()
	require.True(t, ok)
	assert.Equal(t, first+1, n2)
}

func TestBitmap_FreeThenReallocate(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 64, 16)
	bm := img.Bitmap()

	n, ok := bm.Allocate()
	require.True(t, ok)
	bm.Free(n)
	assert.True(t, bm.IsFree(n))

	n2, ok := bm.Allocate()
	require.True(t, ok)
	assert.Equal(t, n, n2)
}

func TestBitmap_FreeIgnoresReservedBlocks(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 64, 16)
	bm := img.Bitmap()

	bm.Free(0)
	assert.False(t, bm.IsFree(0))

	bm.Free(img.NBlocks() + 5)
	assert.False(t, bm.IsFree(img.NBlocks()+5))
}

func TestBitmap_AllocateExhaustion(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 8, 2)
	bm := img.Bitmap()

	for {
		_, ok := bm.Allocate()
		if !ok {
			break
		}
	}
	_, ok := bm.Allocate()
	assert.False(t, ok)
}

package ospfs_test

import (
	"testing"

	"github.com/dargueta/ospfs"
	ospfstesting "github.com/dargueta/ospfs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_SlotReuseAfterUnlink(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 64, 16)
	root := rootOf(t, img)

	_, err := ospfs.Create(img, root, "first", 0644)
	require.Nil(t, err)
	sizeAfterFirst := root.Size()

	require.Nil(t, ospfs.Unlink(img, root, "first"))

	_, err = ospfs.Create(img, root, "second", 0644)
	require.Nil(t, err)

	// The freed slot should be reused rather than growing the directory.
	assert.Equal(t, sizeAfterFirst, root.Size())
}

func TestDirectory_GrowsWhenNoBlankSlotExists(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 4096, 256)
	root := rootOf(t, img)

	slotsPerBlock := uint32(ospfs.BlockSize / ospfs.DirentSize)
	for i := uint32(0); i < slotsPerBlock; i++ {
		_, err := ospfs.Create(img, root, name(i), 0644)
		require.Nil(t, err)
	}
	assert.EqualValues(t, ospfs.BlockSize, root.Size())

	_, err := ospfs.Create(img, root, "overflow", 0644)
	require.Nil(t, err)
	assert.EqualValues(t, 2*ospfs.BlockSize, root.Size())
}

func name(i uint32) string {
	return "f" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}

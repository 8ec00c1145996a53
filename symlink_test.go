package ospfs_test

import (
	"strings"
	"testing"

	"github.com/dargueta/ospfs"
	ospfstesting "github.com/dargueta/ospfs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymlink_PlainTargetRoundTrips(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 64, 16)
	root := rootOf(t, img)

	link, err := ospfs.Symlink(img, root, "plain", "/usr/bin/env")
	require.Nil(t, err)

	target, err := ospfs.FollowLink(link, true)
	require.Nil(t, err)
	assert.Equal(t, "/usr/bin/env", target)

	target, err = ospfs.FollowLink(link, false)
	require.Nil(t, err)
	assert.Equal(t, "/usr/bin/env", target)
}

func TestSymlink_RejectsOversizedTarget(t *testing.T) {
	img, _ := ospfstesting.NewFormattedImage(t, 64, 16)
	root := rootOf(t, img)

	target := strings.Repeat("x", ospfs.MaxSymlinkLen+1)
	_, err := ospfs.Symlink(img, root, "toolong", target)
	assert.ErrorIs(t, err, ospfs.ErrNameTooLong)
}

func TestIsConditionalTarget(t *testing.T) {
	assert.True(t, ospfs.IsConditionalTarget("?/root:/other"))
	assert.False(t, ospfs.IsConditionalTarget("/root"))
	assert.False(t, ospfs.IsConditionalTarget("?noseparator"))
	assert.False(t, ospfs.IsConditionalTarget(""))
}

package ospfs_test

import (
	"errors"
	"testing"

	"github.com/dargueta/ospfs"
	"github.com/stretchr/testify/assert"
)

func TestDiskoErrorWithMessage(t *testing.T) {
	newErr := ospfs.ErrNotFound.WithMessage("asdfqwerty")
	assert.Equal(
		t, "no such file or directory: asdfqwerty", newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, ospfs.ErrNotFound)
}

func TestDiskoErrorWrap(t *testing.T) {
	originalErr := errors.New("original error")
	newErr := ospfs.ErrExists.Wrap(originalErr)
	expectedMessage := "file exists: original error"

	assert.EqualValues(t, expectedMessage, newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, originalErr, "original error not set as parent")
	assert.ErrorIs(t, newErr, ospfs.ErrExists, "ospfs error not set as parent")
}

func TestCastToDriverError(t *testing.T) {
	assert.Nil(t, ospfs.CastToDriverError(nil))

	plain := errors.New("boom")
	cast := ospfs.CastToDriverError(plain)
	assert.ErrorIs(t, cast, ospfs.ErrIOFailed)
	assert.ErrorIs(t, cast, plain)

	already := ospfs.ErrExists.WithMessage("dup")
	assert.Same(t, already, ospfs.CastToDriverError(already))
}

func TestDriverErrorChainedAnnotations(t *testing.T) {
	err := ospfs.ErrNoSpaceOnDevice.WithMessage("growing file").WithMessage("change_size")
	assert.ErrorIs(t, err, ospfs.ErrNoSpaceOnDevice)
}

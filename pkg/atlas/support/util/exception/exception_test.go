package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
)

func TestMapperError_WrapsAndUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := exception.NewMapperError("mapper", "insert failed", cause)

	assert.Contains(t, err.Error(), "[mapper]")
	assert.Contains(t, err.Error(), "insert failed")
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, cause)
}

func TestNewMapperErrorf_ExtractsTrailingError(t *testing.T) {
	err := exception.NewMapperErrorf("gateway", "table %q: cannot insert a %s row: %w", "posts", "CLEAN", exception.ErrCannotInsert)

	assert.ErrorIs(t, err, exception.ErrCannotInsert)
	assert.Contains(t, err.Error(), "posts")
	assert.True(t, exception.IsUsageError(err))
}

func TestUnexpectedRowCount(t *testing.T) {
	err := exception.NewUnexpectedRowCount("gateway", "posts", 1, 3)

	assert.True(t, exception.IsUnexpectedRowCount(err))
	assert.ErrorIs(t, err, exception.ErrUnexpectedRowCount)
	assert.Contains(t, err.Error(), "posts")

	assert.False(t, exception.IsUnexpectedRowCount(nil))
	assert.False(t, exception.IsUnexpectedRowCount(errors.New("other")))
}

func TestSentinelPredicates(t *testing.T) {
	assert.True(t, exception.IsImmutableRow(fmt.Errorf("wrapped: %w", exception.ErrImmutableRow)))
	assert.False(t, exception.IsImmutableRow(exception.ErrCannotDelete))

	assert.True(t, exception.IsUsageError(exception.ErrCannotInsert))
	assert.True(t, exception.IsUsageError(exception.ErrCannotUpdate))
	assert.True(t, exception.IsUsageError(exception.ErrCannotDelete))
	assert.False(t, exception.IsUsageError(exception.ErrUnexpectedRowCount))
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	assert.NotEmpty(t, exception.ExtractErrorMessage(errors.New("boom")))
}

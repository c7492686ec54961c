package cursorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCursorStore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	s := NewMemCursorStore()

	val, err := s.Get(ctx, "testsub")
	require.NoError(err)
	assert.Equal("", val)

	require.NoError(s.Set(ctx, "testsub", "e5q0m"))
	val, err = s.Get(ctx, "testsub")
	require.NoError(err)
	assert.Equal("e5q0m", val)

	require.NoError(s.Set(ctx, "testsub", "e5q9z"))
	val, err = s.Get(ctx, "testsub")
	require.NoError(err)
	assert.Equal("e5q9z", val)
}

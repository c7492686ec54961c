package liststore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemListStore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	s := NewMemListStore()

	ok, err := s.Contains(ctx, "testsub/"+ListWhitelist, "someone")
	require.NoError(err)
	assert.False(ok)

	require.NoError(s.Add(ctx, "testsub/"+ListWhitelist, "someone"))
	require.NoError(s.Add(ctx, "testsub/"+ListWhitelist, "another"))
	require.NoError(s.Add(ctx, "testsub/"+ListWhitelist, "someone"))

	ok, err = s.Contains(ctx, "testsub/"+ListWhitelist, "someone")
	require.NoError(err)
	assert.True(ok)

	// a different namespace is a different list
	ok, err = s.Contains(ctx, "othersub/"+ListWhitelist, "someone")
	require.NoError(err)
	assert.False(ok)

	members, err := s.Members(ctx, "testsub/"+ListWhitelist)
	require.NoError(err)
	assert.Equal([]string{"another", "someone"}, members)

	require.NoError(s.Remove(ctx, "testsub/"+ListWhitelist, "another"))
	members, err = s.Members(ctx, "testsub/"+ListWhitelist)
	require.NoError(err)
	assert.Equal([]string{"someone"}, members)

	require.NoError(s.Clear(ctx, "testsub/"+ListWhitelist))
	members, err = s.Members(ctx, "testsub/"+ListWhitelist)
	require.NoError(err)
	assert.Empty(members)
}

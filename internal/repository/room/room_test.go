package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveMemberPromotesEarliestJoined(t *testing.T) {
	r := Room{
		Code: "ABCDEF",
		Members: []Member{
			{Id: "a", IsHost: true},
			{Id: "b"},
			{Id: "c"},
		},
		HostId: "a",
	}

	hostChanged, err := r.RemoveMember("b")
	require.NoError(t, err)
	assert.False(t, hostChanged)
	assert.Equal(t, "a", r.HostId)

	hostChanged, err = r.RemoveMember("a")
	require.NoError(t, err)
	assert.True(t, hostChanged)
	assert.Equal(t, "c", r.HostId)
	assert.True(t, r.Members[0].IsHost)

	_, err = r.RemoveMember("a")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	hostChanged, err = r.RemoveMember("c")
	require.NoError(t, err)
	assert.True(t, hostChanged)
	assert.Empty(t, r.HostId)
	assert.Empty(t, r.Members)
}

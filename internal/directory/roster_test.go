package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TymekV/simple-chat/internal/domain"
)

func strptr(s string) *string { return &s }

func TestRosterReplaceAndClear(t *testing.T) {
	r := NewRoster()

	r.Replace([]domain.RoomMember{
		{UserID: "u1", Username: strptr("alice")},
		{UserID: "u2"},
	})
	require.Len(t, r.Members(), 2)

	r.Clear()
	assert.Empty(t, r.Members())
}

func TestRosterUsername(t *testing.T) {
	r := NewRoster()
	r.Replace([]domain.RoomMember{
		{UserID: "u1", Username: strptr("alice")},
		{UserID: "u2"},
	})

	name, ok := r.Username("u1")
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	// A member without a chosen name resolves to not-found.
	_, ok = r.Username("u2")
	assert.False(t, ok)

	_, ok = r.Username("missing")
	assert.False(t, ok)
}

func TestRosterReplaceIsWholesale(t *testing.T) {
	r := NewRoster()
	r.Replace([]domain.RoomMember{{UserID: "u1", Username: strptr("alice")}})
	r.Replace([]domain.RoomMember{{UserID: "u2", Username: strptr("bob")}})

	_, ok := r.Username("u1")
	assert.False(t, ok)

	name, ok := r.Username("u2")
	require.True(t, ok)
	assert.Equal(t, "bob", name)
}

package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TymekV/simple-chat/internal/domain"
)

func TestReplaceInstallsSnapshot(t *testing.T) {
	d := New()

	d.Replace([]domain.RoomListItem{
		{ID: "r1", Name: "general", MemberCount: 3},
		{ID: "r2", Name: "random", MemberCount: 1},
	})
	require.Len(t, d.Rooms(), 2)

	// A later snapshot fully replaces the previous one.
	d.Replace([]domain.RoomListItem{{ID: "r3", Name: "ops"}})
	rooms := d.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, "r3", rooms[0].ID)
}

func TestAddAppends(t *testing.T) {
	d := New()
	d.Replace([]domain.RoomListItem{{ID: "r1", Name: "general"}})

	d.Add(domain.RoomListItem{ID: "r2", Name: "new-room"})

	rooms := d.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "r2", rooms[1].ID)
}

func TestGet(t *testing.T) {
	d := New()
	d.Replace([]domain.RoomListItem{{ID: "r1", Name: "general", MemberCount: 5}})

	room, ok := d.Get("r1")
	require.True(t, ok)
	assert.Equal(t, "general", room.Name)
	assert.Equal(t, 5, room.MemberCount)

	_, ok = d.Get("missing")
	assert.False(t, ok)
}

func TestRoomsReturnsCopy(t *testing.T) {
	d := New()
	d.Replace([]domain.RoomListItem{{ID: "r1", Name: "general"}})

	rooms := d.Rooms()
	rooms[0].Name = "mutated"

	fresh, ok := d.Get("r1")
	require.True(t, ok)
	assert.Equal(t, "general", fresh.Name)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomSlotAssignment(t *testing.T) {
	room := NewRoom()

	assert.Empty(t, room.AssignClient(RoleMobile, "A"))
	assert.Empty(t, room.AssignClient(RoleDesktop, "B"))
	assert.Equal(t, "A", room.Occupant(RoleMobile))
	assert.Equal(t, "B", room.Occupant(RoleDesktop))
	assert.True(t, room.IsMobile("A"))
	assert.False(t, room.IsMobile("B"))
	assert.True(t, room.IsMember("B"))
	assert.False(t, room.IsMember("C"))
	assert.False(t, room.IsEmpty())
}

func TestRoomAssignReportsDisplaced(t *testing.T) {
	room := NewRoom()
	room.AssignClient(RoleMobile, "A")

	displaced := room.AssignClient(RoleMobile, "B")

	assert.Equal(t, "A", displaced)
	assert.Equal(t, "B", room.Occupant(RoleMobile))
}

func TestRoomReassignSameClientNotDisplaced(t *testing.T) {
	room := NewRoom()
	room.AssignClient(RoleDesktop, "B")
	room.SetSpotifyToken("tok")

	displaced := room.AssignClient(RoleDesktop, "B")

	assert.Empty(t, displaced)
	assert.True(t, room.Status().HasSpotifyToken, "re-joining desktop keeps its own token")
}

func TestRoomDesktopReplacementClearsSpotifyState(t *testing.T) {
	room := NewRoom()
	room.AssignClient(RoleDesktop, "B")
	room.SetSpotifyToken("tok")
	room.SetSpotifyTrack("s1", SpotifyTrack{SpotifyID: "sp1"})

	room.AssignClient(RoleDesktop, "B2")

	status := room.Status()
	assert.False(t, status.HasSpotifyToken)
	assert.Zero(t, status.SpotifyTracksCount)
}

func TestRoomRemoveClientGuardsSlot(t *testing.T) {
	room := NewRoom()
	room.AssignClient(RoleMobile, "A")

	assert.False(t, room.RemoveClient(RoleMobile, "someone-else"))
	assert.Equal(t, "A", room.Occupant(RoleMobile))

	assert.True(t, room.RemoveClient(RoleMobile, "A"))
	assert.Empty(t, room.Occupant(RoleMobile))
	assert.True(t, room.IsEmpty())
}

func TestRoomInitialStateSnapshot(t *testing.T) {
	room := NewRoom()
	room.SetSpotifyToken("tok")
	room.ReplaceSongs([]map[string]any{{"id": "s1", "name": "One"}})

	state := room.InitialState()

	assert.Equal(t, "tok", state["spotifyToken"])
	songs := state["selectedSongs"].([]map[string]any)
	require.Len(t, songs, 1)
	assert.Equal(t, "s1", songs[0]["id"])
}

func TestRoomStatusCounts(t *testing.T) {
	room := NewRoom()
	room.AssignClient(RoleMobile, "A")
	room.SetSpotifyToken("tok")
	room.ReplaceSongs([]map[string]any{{"id": "s1"}, {"id": "s2"}})
	room.SetSpotifyTrack("s1", SpotifyTrack{SpotifyID: "sp1", Tempo: 98})

	status := room.Status()

	assert.True(t, status.HasMobile)
	assert.False(t, status.HasDesktop)
	assert.True(t, status.HasSpotifyToken)
	assert.Equal(t, 2, status.SelectedSongsCount)
	assert.Equal(t, 1, status.SpotifyTracksCount)
}

func TestRoomTransferLifecycle(t *testing.T) {
	room := NewRoom()

	// Chunks without an open transfer are dropped silently.
	room.AppendChunk("s1", "xx", 0, 2)
	assert.Zero(t, room.TransferCount())

	room.StartTransfer("s1", "track.mp3", 10)
	room.AppendChunk("s1", "aaaaa", 0, 5)
	room.AppendChunk("s1", "bbbbb", 5, 5)
	assert.Equal(t, 1, room.TransferCount())

	room.DiscardTransfer("s1")
	assert.Zero(t, room.TransferCount())

	room.StartTransfer("s2", "other.mp3", 4)
	room.StartTransfer("s3", "third.mp3", 4)
	room.PurgeTransfers()
	assert.Zero(t, room.TransferCount())
}

func TestRoomLastActivityAdvances(t *testing.T) {
	room := NewRoom()
	before := room.LastActivity()

	room.AssignClient(RoleMobile, "A")

	assert.False(t, room.LastActivity().Before(before))
}

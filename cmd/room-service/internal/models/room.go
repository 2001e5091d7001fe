package models

import (
	"sync"
	"time"
)

// ClientRole identifies which slot of a room a connection occupies.
type ClientRole string

const (
	RoleMobile  ClientRole = "mobile"
	RoleDesktop ClientRole = "desktop"
)

// SpotifyTrack holds the track metadata the mobile client resolves for a
// selected song.
type SpotifyTrack struct {
	SpotifyID  string  `json:"spotifyId"`
	TrackName  string  `json:"trackName"`
	ArtistName string  `json:"artistName"`
	Tempo      float64 `json:"tempo"`
}

// FileChunk is one relayed piece of an in-flight transfer.
type FileChunk struct {
	Data   any
	Offset int64
}

// FileTransfer accumulates chunks for a single song file until the final
// chunk arrives. Chunks are trusted to arrive in order from one sender.
type FileTransfer struct {
	Filename  string
	TotalSize int64
	Received  int64
	Chunks    []FileChunk
}

// RoomStatus is the read-only view served by the HTTP status endpoint.
type RoomStatus struct {
	HasDesktop         bool `json:"hasDesktop"`
	HasMobile          bool `json:"hasMobile"`
	HasSpotifyToken    bool `json:"hasSpotifyToken"`
	SelectedSongsCount int  `json:"selectedSongsCount"`
	SpotifyTracksCount int  `json:"spotifyTracksCount"`
}

// Room pairs at most one mobile (controller) and one desktop (display)
// connection and carries the session state relayed between them.
type Room struct {
	mu sync.Mutex

	mobileClient  string
	desktopClient string
	spotifyToken  string
	selectedSongs []map[string]any
	spotifyTracks map[string]SpotifyTrack
	transfers     map[string]*FileTransfer
	lastActivity  time.Time
}

func NewRoom() *Room {
	return &Room{
		selectedSongs: []map[string]any{},
		spotifyTracks: make(map[string]SpotifyTrack),
		transfers:     make(map[string]*FileTransfer),
		lastActivity:  time.Now(),
	}
}

// AssignClient puts clientID into the slot for role, replacing any previous
// occupant. The displaced connection id is returned; it receives no
// notification (last-writer-wins is the documented policy).
func (r *Room) AssignClient(role ClientRole, clientID string) (displaced string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch role {
	case RoleMobile:
		displaced = r.mobileClient
		r.mobileClient = clientID
	case RoleDesktop:
		displaced = r.desktopClient
		r.desktopClient = clientID
	}
	if displaced == clientID {
		displaced = ""
	}
	if role == RoleDesktop && displaced != "" {
		// A replaced desktop invalidates the token it supplied.
		r.spotifyToken = ""
		r.spotifyTracks = make(map[string]SpotifyTrack)
	}
	r.lastActivity = time.Now()
	return displaced
}

// RemoveClient clears the slot for role only if it still names clientID,
// guarding against slots already overwritten by a newer connection.
func (r *Room) RemoveClient(role ClientRole, clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch role {
	case RoleMobile:
		if r.mobileClient != clientID {
			return false
		}
		r.mobileClient = ""
	case RoleDesktop:
		if r.desktopClient != clientID {
			return false
		}
		r.desktopClient = ""
	default:
		return false
	}
	r.lastActivity = time.Now()
	return true
}

// Occupant returns the connection currently holding role.
func (r *Room) Occupant(role ClientRole) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role == RoleMobile {
		return r.mobileClient
	}
	return r.desktopClient
}

// IsMobile reports whether clientID currently holds the mobile slot.
func (r *Room) IsMobile(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clientID != "" && r.mobileClient == clientID
}

// IsMember reports whether clientID holds either slot.
func (r *Room) IsMember(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clientID != "" && (r.mobileClient == clientID || r.desktopClient == clientID)
}

// IsEmpty reports whether both slots are vacant.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mobileClient == "" && r.desktopClient == ""
}

func (r *Room) SetSpotifyToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spotifyToken = token
}

// ClearSpotifyState drops the token and all resolved track metadata. Called
// when the desktop connection leaves, even if a mobile client remains.
func (r *Room) ClearSpotifyState() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spotifyToken = ""
	r.spotifyTracks = make(map[string]SpotifyTrack)
}

// ReplaceSongs swaps the selected-song list wholesale, preserving the
// submitted order.
func (r *Room) ReplaceSongs(songs []map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selectedSongs = songs
}

func (r *Room) SetSpotifyTrack(songID string, track SpotifyTrack) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spotifyTracks[songID] = track
}

// InitialState snapshots the fields pushed to a freshly classified client.
func (r *Room) InitialState() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]any{
		"spotifyToken":  r.spotifyToken,
		"selectedSongs": r.selectedSongs,
	}
}

// Status snapshots the room for the HTTP status endpoint.
func (r *Room) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomStatus{
		HasDesktop:         r.desktopClient != "",
		HasMobile:          r.mobileClient != "",
		HasSpotifyToken:    r.spotifyToken != "",
		SelectedSongsCount: len(r.selectedSongs),
		SpotifyTracksCount: len(r.spotifyTracks),
	}
}

// LastActivity is advisory only; nothing evicts on it today.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// StartTransfer opens (or restarts) the chunk buffer for songID.
func (r *Room) StartTransfer(songID, filename string, totalSize int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers[songID] = &FileTransfer{
		Filename:  filename,
		TotalSize: totalSize,
	}
}

// AppendChunk records a chunk against the open transfer for songID. A chunk
// for an unknown transfer is ignored; the relay still happens upstream.
func (r *Room) AppendChunk(songID string, data any, offset int64, size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transfers[songID]
	if !ok {
		return
	}
	t.Chunks = append(t.Chunks, FileChunk{Data: data, Offset: offset})
	t.Received += size
}

// DiscardTransfer drops the buffer for songID once the final chunk is in.
func (r *Room) DiscardTransfer(songID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transfers, songID)
}

// PurgeTransfers drops every in-flight buffer. Called on room finalization
// so an abandoned transfer cannot pin memory.
func (r *Room) PurgeTransfers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = make(map[string]*FileTransfer)
}

// TransferCount reports the number of open chunk buffers.
func (r *Room) TransferCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transfers)
}

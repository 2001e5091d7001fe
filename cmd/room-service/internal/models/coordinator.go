package models

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Client -> server events.
const (
	EventJoinRoom             = "join-room"
	EventClientTypeResponse   = "client-type-response"
	EventSpotifyToken         = "spotify-token"
	EventUpdateSongs          = "update-songs"
	EventSpotifyTrackSelected = "spotify-track-selected"
	EventStartGrowth          = "start-growth"
	EventUpdateVolume         = "update-volume"
	EventMusicDirection       = "music-direction-updated"
	EventTogglePlayback       = "toggle-playback"
	EventNextSong             = "next-song"
	EventPreviousSong         = "previous-song"
	EventFileMeta             = "file-meta"
	EventFileChunk            = "file-chunk"
	EventMobileJoinedRoom     = "mobile-joined-room"
	EventPlaybackCommand      = "playback-command"
)

// Server -> client events.
const (
	EventGetClientType       = "get-client-type"
	EventInitialState        = "initial-state"
	EventSpotifyTokenUpdated = "spotify-token-updated"
	EventSongsUpdated        = "songs-updated"
	EventSpotifyTrackConfirm = "spotify-track-confirmed"
	EventGrowthStarted       = "growth-started"
	EventVolumeUpdated       = "volume-updated"
	EventMobileDisconnected  = "mobile-disconnected"
	EventDesktopDisconnected = "desktop-disconnected"
	EventFileReceived        = "file-received"
	EventPlaybackUpdate      = "playback-update"
	EventPlaybackStatus      = "playback-status"
)

// Notifier is the transport surface the coordinator emits through. The
// Socket.IO layer implements it; tests substitute a recording fake.
type Notifier interface {
	// JoinChannel subscribes a connection to a room's broadcast channel.
	JoinChannel(clientID, roomID string)
	// LeaveChannel removes a connection from a room's broadcast channel.
	LeaveChannel(clientID, roomID string)
	// ToClient emits an event to a single connection.
	ToClient(clientID, event string, data ...any)
	// ToRoom emits an event to every member of a room's channel.
	ToRoom(roomID, event string, data ...any)
	// ToRoomExcept emits to every channel member but exceptID.
	ToRoomExcept(roomID, exceptID, event string, data ...any)
}

type pendingAssignment struct {
	roomID   string
	assigned bool
}

type assignment struct {
	roomID string
	role   ClientRole
}

// Coordinator routes connection events into room mutations and outbound
// broadcasts. All invalid conditions (unknown room, wrong slot, duplicate
// classification) degrade to silent no-ops; silence is the contract with
// the clients.
type Coordinator struct {
	registry *Registry
	notifier Notifier
	log      *zap.Logger
	grace    time.Duration

	mu         sync.Mutex
	pending    map[string]*pendingAssignment
	classified map[string]assignment
}

func NewCoordinator(registry *Registry, notifier Notifier, grace time.Duration, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		registry:   registry,
		notifier:   notifier,
		log:        log,
		grace:      grace,
		pending:    make(map[string]*pendingAssignment),
		classified: make(map[string]assignment),
	}
}

// JoinRoom handles a join request: any prior classification in a different
// room is unwound first, then the client is asked to declare its type.
func (c *Coordinator) JoinRoom(clientID, roomID string) {
	if roomID == "" {
		return
	}
	c.log.Info("client joining room",
		zap.String("client", clientID), zap.String("room", roomID))

	c.mu.Lock()
	prev, wasClassified := c.classified[clientID]
	if wasClassified && prev.roomID != roomID {
		delete(c.classified, clientID)
	} else {
		wasClassified = false
	}
	c.pending[clientID] = &pendingAssignment{roomID: roomID}
	c.mu.Unlock()

	if wasClassified {
		c.leaveRoom(clientID, prev.roomID, prev.role)
	}

	c.notifier.ToClient(clientID, EventGetClientType)
}

// ClassifyClient completes a pending join with the declared role. Duplicate
// or unsolicited declarations are ignored.
func (c *Coordinator) ClassifyClient(clientID string, role ClientRole) {
	if role != RoleMobile && role != RoleDesktop {
		return
	}

	c.mu.Lock()
	p, ok := c.pending[clientID]
	if !ok || p.assigned {
		c.mu.Unlock()
		return
	}
	p.assigned = true
	roomID := p.roomID
	c.classified[clientID] = assignment{roomID: roomID, role: role}
	c.mu.Unlock()

	c.notifier.JoinChannel(clientID, roomID)
	room := c.registry.GetOrCreate(roomID)
	if displaced := room.AssignClient(role, clientID); displaced != "" {
		// Last writer wins; the displaced connection is told nothing and
		// stays subscribed to the channel until it leaves on its own.
		c.log.Info("slot occupant replaced",
			zap.String("room", roomID),
			zap.String("role", string(role)),
			zap.String("displaced", displaced))
	}

	c.log.Info("client classified",
		zap.String("client", clientID),
		zap.String("room", roomID),
		zap.String("role", string(role)))

	c.notifier.ToClient(clientID, EventInitialState, room.InitialState())
}

// SpotifyToken stores the token supplied by the desktop client and fans it
// out to the whole room, sender included.
func (c *Coordinator) SpotifyToken(clientID, roomID, token string) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}
	room.SetSpotifyToken(token)
	c.log.Info("spotify token updated", zap.String("room", roomID))
	c.notifier.ToRoom(roomID, EventSpotifyTokenUpdated, map[string]any{"token": token})
}

// UpdateSongs replaces the selected-song list wholesale. Only the mobile
// slot may mutate it.
func (c *Coordinator) UpdateSongs(clientID, roomID string, songs []map[string]any) {
	room, ok := c.registry.Get(roomID)
	if !ok || !room.IsMobile(clientID) {
		return
	}
	room.ReplaceSongs(songs)
	c.log.Info("song list updated",
		zap.String("room", roomID), zap.Int("count", len(songs)))
	c.notifier.ToRoom(roomID, EventSongsUpdated, map[string]any{"songs": songs})
}

// SpotifyTrackSelected stores resolved track metadata, relays it to the
// other room member, and acknowledges the sender separately.
func (c *Coordinator) SpotifyTrackSelected(clientID, roomID, songID string, track SpotifyTrack, payload map[string]any) {
	room, ok := c.registry.Get(roomID)
	if !ok || !room.IsMobile(clientID) {
		return
	}
	room.SetSpotifyTrack(songID, track)
	c.notifier.ToRoomExcept(roomID, clientID, EventSpotifyTrackSelected, payload)
	c.notifier.ToClient(clientID, EventSpotifyTrackConfirm, map[string]any{"songId": songID})
}

// StartGrowth buckets the submitted songs into local files and Spotify
// tracks and announces the growth session to the whole room.
func (c *Coordinator) StartGrowth(clientID, roomID string, songs any, growthTime any, distributions any) {
	room, ok := c.registry.Get(roomID)
	if !ok || !room.IsMobile(clientID) {
		return
	}
	c.log.Info("growth started", zap.String("room", roomID))
	c.notifier.ToRoom(roomID, EventGrowthStarted, map[string]any{
		"songs":         BucketSongs(songs),
		"growthTime":    growthTime,
		"distributions": distributions,
	})
}

// RelayTransport relays a mobile-only transport control (volume, playback
// toggle, skip, direction) to the whole room under its outbound name.
func (c *Coordinator) RelayTransport(clientID, roomID, event string, payload map[string]any) {
	room, ok := c.registry.Get(roomID)
	if !ok || !room.IsMobile(clientID) {
		return
	}
	c.notifier.ToRoom(roomID, event, payload)
}

// MobileJoined relays the mobile client's join announcement to the other
// room member(s).
func (c *Coordinator) MobileJoined(clientID, roomID string) {
	if _, ok := c.registry.Get(roomID); !ok {
		return
	}
	c.notifier.ToRoomExcept(roomID, clientID, EventMobileJoinedRoom, map[string]any{"roomId": roomID})
}

// PlaybackCommand keeps the legacy single-role protocol alive: any member
// may push a command; it is relayed to the other members, and "status"
// commands are echoed back to everyone including the sender.
func (c *Coordinator) PlaybackCommand(clientID, roomID, command string, data any) {
	room, ok := c.registry.Get(roomID)
	if !ok || !room.IsMember(clientID) {
		return
	}
	c.notifier.ToRoomExcept(roomID, clientID, EventPlaybackUpdate, map[string]any{
		"command": command,
		"data":    data,
	})
	if command == "status" {
		c.notifier.ToRoom(roomID, EventPlaybackStatus, data)
	}
}

// FileMeta opens a transfer buffer and relays the announcement. Transfers
// carry no role check; any room the meta names will accept them.
func (c *Coordinator) FileMeta(clientID, roomID, songID, filename string, fileSize int64, payload map[string]any) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}
	room.StartTransfer(songID, filename, fileSize)
	c.log.Info("file transfer started",
		zap.String("room", roomID),
		zap.String("song", songID),
		zap.Int64("size", fileSize))
	c.notifier.ToRoomExcept(roomID, clientID, EventFileMeta, payload)
}

// FileChunk appends a chunk, relays it onward, and on the final chunk
// acknowledges the sender and discards the buffer. Offsets are trusted.
func (c *Coordinator) FileChunk(clientID, roomID, songID string, data any, offset int64, final bool, payload map[string]any) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}
	room.AppendChunk(songID, data, offset, chunkSize(data))
	c.notifier.ToRoomExcept(roomID, clientID, EventFileChunk, payload)
	if final {
		room.DiscardTransfer(songID)
		c.notifier.ToClient(clientID, EventFileReceived, map[string]any{"songId": songID})
	}
}

// Disconnect unwinds whatever state the connection held: its pending
// assignment, its slot, and (for a desktop) the room's Spotify state.
func (c *Coordinator) Disconnect(clientID string) {
	c.mu.Lock()
	delete(c.pending, clientID)
	asgn, ok := c.classified[clientID]
	if ok {
		delete(c.classified, clientID)
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	c.leaveRoom(clientID, asgn.roomID, asgn.role)
}

// leaveRoom runs the leave protocol: vacate the slot (if still held),
// notify the surviving member, clear Spotify state on desktop departure,
// leave the channel, and schedule cleanup if the room emptied.
func (c *Coordinator) leaveRoom(clientID, roomID string, role ClientRole) {
	defer c.notifier.LeaveChannel(clientID, roomID)

	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}

	if !room.RemoveClient(role, clientID) {
		// Slot already taken over by a newer connection of the same role;
		// the late leaver only drops off the channel.
		return
	}
	if role == RoleDesktop {
		room.ClearSpotifyState()
	}

	var event string
	var other string
	if role == RoleMobile {
		event = EventMobileDisconnected
		other = room.Occupant(RoleDesktop)
	} else {
		event = EventDesktopDisconnected
		other = room.Occupant(RoleMobile)
	}
	if other != "" {
		c.notifier.ToClient(other, event)
	}

	c.log.Info("client left room",
		zap.String("client", clientID),
		zap.String("room", roomID),
		zap.String("role", string(role)),
		zap.Time("lastActivity", room.LastActivity()))

	if room.IsEmpty() {
		c.scheduleCleanup(roomID)
	}
}

// scheduleCleanup finalizes an emptied room after the grace period. The
// timer never cancels; it re-checks occupancy when it fires, so a rejoin
// within the window keeps the room and double-scheduling is harmless.
func (c *Coordinator) scheduleCleanup(roomID string) {
	time.AfterFunc(c.grace, func() {
		room, ok := c.registry.Get(roomID)
		if !ok || !room.IsEmpty() {
			return
		}
		room.PurgeTransfers()
		c.registry.Delete(roomID)
		c.log.Info("room deleted after grace period", zap.String("room", roomID))
	})
}

func chunkSize(data any) int64 {
	switch v := data.(type) {
	case []byte:
		return int64(len(v))
	case string:
		return int64(len(v))
	default:
		return 0
	}
}

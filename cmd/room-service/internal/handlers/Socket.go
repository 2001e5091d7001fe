package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"

	"github.com/plantsinspace/backend/cmd/room-service/internal/models"
)

// SocketServer owns the Socket.IO server, tracks live connections, and
// implements models.Notifier on top of the broadcast operator.
type SocketServer struct {
	io   *socket.Server
	opts *socket.ServerOptions
	log  *zap.Logger

	mu    sync.RWMutex
	conns map[string]*socket.Socket
}

func NewSocketServer(corsOrigin string, log *zap.Logger) *SocketServer {
	opts := socket.DefaultServerOptions()
	opts.SetCors(&types.Cors{
		Origin:      corsOrigin,
		Credentials: true,
	})
	opts.SetAllowEIO3(true)

	return &SocketServer{
		io:    socket.NewServer(nil, opts),
		opts:  opts,
		log:   log,
		conns: make(map[string]*socket.Socket),
	}
}

// Handler returns the HTTP handler to mount under /socket.io/.
func (s *SocketServer) Handler() http.Handler {
	return s.io.ServeHandler(s.opts)
}

// Close shuts the Socket.IO server down.
func (s *SocketServer) Close() {
	s.io.Close(nil)
}

// Bind registers the connection handler and routes every inbound event to
// the coordinator.
func (s *SocketServer) Bind(coord *models.Coordinator) {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		id := string(client.Id())
		s.log.Info("client connected", zap.String("client", id))

		s.mu.Lock()
		s.conns[id] = client
		s.mu.Unlock()

		s.registerEventHandlers(client, coord)

		client.On("disconnect", func(...any) {
			s.log.Info("client disconnected", zap.String("client", id))
			s.mu.Lock()
			delete(s.conns, id)
			s.mu.Unlock()
			coord.Disconnect(id)
		})
	})
}

func (s *SocketServer) registerEventHandlers(client *socket.Socket, coord *models.Coordinator) {
	id := string(client.Id())

	client.On(models.EventJoinRoom, func(args ...any) {
		coord.JoinRoom(id, roomIDArg(args))
	})
	client.On(models.EventClientTypeResponse, func(args ...any) {
		coord.ClassifyClient(id, models.ClientRole(roleArg(args)))
	})
	client.On(models.EventSpotifyToken, func(args ...any) {
		data := parseData(args)
		coord.SpotifyToken(id, getString(data, "roomId"), getString(data, "token"))
	})
	client.On(models.EventUpdateSongs, func(args ...any) {
		data := parseData(args)
		coord.UpdateSongs(id, getString(data, "roomId"), toSongList(data["songs"]))
	})
	client.On(models.EventSpotifyTrackSelected, func(args ...any) {
		data := parseData(args)
		track := models.SpotifyTrack{
			SpotifyID:  getString(data, "spotifyId"),
			TrackName:  getString(data, "trackName"),
			ArtistName: getString(data, "artistName"),
			Tempo:      getFloat(data, "tempo"),
		}
		coord.SpotifyTrackSelected(id, getString(data, "roomId"), getString(data, "songId"), track, data)
	})
	client.On(models.EventStartGrowth, func(args ...any) {
		data := parseData(args)
		coord.StartGrowth(id, getString(data, "roomId"), data["songs"], data["growthTime"], data["distributions"])
	})
	client.On(models.EventUpdateVolume, func(args ...any) {
		data := parseData(args)
		coord.RelayTransport(id, getString(data, "roomId"), models.EventVolumeUpdated, data)
	})
	client.On(models.EventMusicDirection, func(args ...any) {
		data := parseData(args)
		coord.RelayTransport(id, getString(data, "roomId"), models.EventMusicDirection, data)
	})
	client.On(models.EventTogglePlayback, func(args ...any) {
		data := parseData(args)
		coord.RelayTransport(id, getString(data, "roomId"), models.EventTogglePlayback, data)
	})
	client.On(models.EventNextSong, func(args ...any) {
		data := parseData(args)
		coord.RelayTransport(id, getString(data, "roomId"), models.EventNextSong, data)
	})
	client.On(models.EventPreviousSong, func(args ...any) {
		data := parseData(args)
		coord.RelayTransport(id, getString(data, "roomId"), models.EventPreviousSong, data)
	})
	client.On(models.EventMobileJoinedRoom, func(args ...any) {
		coord.MobileJoined(id, roomIDArg(args))
	})
	client.On(models.EventPlaybackCommand, func(args ...any) {
		data := parseData(args)
		coord.PlaybackCommand(id, getString(data, "roomId"), getString(data, "command"), data["data"])
	})
	client.On(models.EventFileMeta, func(args ...any) {
		data := parseData(args)
		coord.FileMeta(id,
			getString(data, "roomId"),
			getString(data, "songId"),
			getString(data, "filename"),
			getInt64(data, "fileSize"),
			data)
	})
	client.On(models.EventFileChunk, func(args ...any) {
		data := parseData(args)
		coord.FileChunk(id,
			getString(data, "roomId"),
			getString(data, "songId"),
			data["data"],
			getInt64(data, "offset"),
			getBool(data, "final"),
			data)
	})
}

// JoinChannel implements models.Notifier.
func (s *SocketServer) JoinChannel(clientID, roomID string) {
	s.mu.RLock()
	client := s.conns[clientID]
	s.mu.RUnlock()
	if client != nil {
		client.Join(socket.Room(roomID))
	}
}

// LeaveChannel implements models.Notifier.
func (s *SocketServer) LeaveChannel(clientID, roomID string) {
	s.mu.RLock()
	client := s.conns[clientID]
	s.mu.RUnlock()
	if client != nil {
		client.Leave(socket.Room(roomID))
	}
}

// ToClient implements models.Notifier. Every socket sits in a room named
// by its own id, so targeting a connection is a room emit.
func (s *SocketServer) ToClient(clientID, event string, data ...any) {
	s.io.To(socket.Room(clientID)).Emit(event, data...)
}

// ToRoom implements models.Notifier.
func (s *SocketServer) ToRoom(roomID, event string, data ...any) {
	s.io.To(socket.Room(roomID)).Emit(event, data...)
}

// ToRoomExcept implements models.Notifier.
func (s *SocketServer) ToRoomExcept(roomID, exceptID, event string, data ...any) {
	s.io.To(socket.Room(roomID)).Except(socket.Room(exceptID)).Emit(event, data...)
}

// parseData normalises the first event argument into map form; the
// Socket.IO library hands JSON payloads through as raw values.
func parseData(args []any) map[string]any {
	if len(args) == 0 {
		return map[string]any{}
	}
	switch v := args[0].(type) {
	case map[string]any:
		return v
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err == nil {
			return m
		}
		return map[string]any{"data": v}
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return map[string]any{}
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return map[string]any{}
		}
		return m
	}
}

// roomIDArg accepts both the bare-string form ("join-room", roomId) and
// the object form ({roomId: ...}).
func roomIDArg(args []any) string {
	if len(args) == 0 {
		return ""
	}
	if id, ok := args[0].(string); ok {
		return id
	}
	return getString(parseData(args), "roomId")
}

// roleArg accepts a bare string or an object carrying type/role.
func roleArg(args []any) string {
	if len(args) == 0 {
		return ""
	}
	if role, ok := args[0].(string); ok {
		return role
	}
	data := parseData(args)
	if role := getString(data, "type"); role != "" {
		return role
	}
	return getString(data, "role")
}

func toSongList(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	songs := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			songs = append(songs, m)
		}
	}
	return songs
}

func getString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func getFloat(data map[string]any, key string) float64 {
	f, _ := data[key].(float64)
	return f
}

func getInt64(data map[string]any, key string) int64 {
	switch v := data[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func getBool(data map[string]any, key string) bool {
	b, _ := data[key].(bool)
	return b
}

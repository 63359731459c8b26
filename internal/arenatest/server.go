// Package arenatest provides an in-process double of the Arena service: the
// REST bootstrap endpoints plus a scriptable room websocket. Integration
// tests drive it to push arbitrary frames and to drop connections; the
// arenastub command runs it standalone as a demo backend.
package arenatest

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/arenahq/roomsync/internal/room"
)

// Join records one completed join handshake.
type Join struct {
	ConnID     string
	PlayerName string
}

// ClientFrame is one frame received from a connected client.
type ClientFrame struct {
	ConnID     string
	PlayerName string
	Envelope   room.Envelope
}

type client struct {
	id   string
	name string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(env room.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(env)
}

func (c *client) sendRaw(raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

// Server is the Arena service double. One instance hosts one room.
type Server struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	state   room.RoomState
	players map[string]*room.PlayerEntry
	order   []string
	clients map[string]*client

	joins  chan Join
	frames chan ClientFrame
}

// NewServer builds a server double hosting the given room.
func NewServer(state room.RoomState) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		state:   state,
		players: make(map[string]*room.PlayerEntry),
		clients: make(map[string]*client),
		joins:   make(chan Join, 64),
		frames:  make(chan ClientFrame, 256),
	}
}

// Joins delivers a record per completed join handshake, including the ones
// re-run after a reconnect.
func (s *Server) Joins() <-chan Join { return s.joins }

// Frames delivers every non-join frame received from clients.
func (s *Server) Frames() <-chan ClientFrame { return s.frames }

// Handler returns the HTTP handler: REST endpoints and the room websocket,
// behind the same permissive CORS policy the real service uses.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/room/", s.handleGetRoom)
	mux.HandleFunc("/games", s.handleGames)
	mux.HandleFunc("/create-game", s.handleCreateRoom)
	mux.HandleFunc("/ws/", s.handleWebSocket)
	return cors.AllowAll().Handler(mux)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimPrefix(r.URL.Path, "/room/")
	s.mu.Lock()
	defer s.mu.Unlock()
	if roomID != s.state.ID {
		http.Error(w, `{"detail":"Room not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"room":        s.state,
		"leaderboard": s.leaderboardLocked(),
	})
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"games": []map[string]any{
			{"id": "lions_ravens_demo", "name": s.state.GameName, "status": "active", "has_events": true},
		},
	})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		GameName string `json:"game_name"`
		HostName string `json:"host_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"detail":"invalid body"}`, http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.state.Name = req.Name
	s.state.GameName = req.GameName
	s.state.HostName = req.HostName
	if s.state.ID == "" {
		s.state.ID = uuid.New().String()[:8]
	}
	id := s.state.ID
	s.mu.Unlock()
	writeJSON(w, map[string]any{"room_id": id, "message": "Room created successfully"})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimPrefix(r.URL.Path, "/ws/")
	s.mu.Lock()
	known := roomID == s.state.ID
	s.mu.Unlock()
	if !known {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("upgrade failed")
		return
	}

	// First frame must be the join announcement.
	var env room.Envelope
	if err := conn.ReadJSON(&env); err != nil || env.Type != room.TypeJoinRoom {
		conn.Close()
		return
	}
	var joinData struct {
		PlayerName string `json:"player_name"`
	}
	if err := json.Unmarshal(env.Data, &joinData); err != nil || joinData.PlayerName == "" {
		conn.Close()
		return
	}

	c := &client{
		id:   uuid.New().String()[:8],
		name: strings.TrimSpace(joinData.PlayerName),
		conn: conn,
	}

	s.mu.Lock()
	s.clients[c.id] = c
	if c.name != s.state.HostName {
		if _, ok := s.players[c.name]; !ok {
			s.players[c.name] = &room.PlayerEntry{Name: c.name}
			s.order = append(s.order, c.name)
		}
	}
	s.mu.Unlock()

	log.Info().Str("conn_id", c.id).Str("player", c.name).Msg("client joined")
	s.joins <- Join{ConnID: c.id, PlayerName: c.name}
	s.PushRoomUpdate(c.name + " joined the room")

	go s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		c.conn.Close()
	}()

	for {
		var env room.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		select {
		case s.frames <- ClientFrame{ConnID: c.id, PlayerName: c.name, Envelope: env}:
		default:
			log.Warn().Str("conn_id", c.id).Msg("frame buffer full, dropping client frame")
		}
	}
}

// Push broadcasts one frame to every connected client. data is marshaled as
// the envelope's data object.
func (s *Server) Push(t room.MessageType, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("type", string(t)).Msg("marshal push payload")
		return
	}
	env := room.Envelope{Type: t, Data: raw}

	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		if err := c.send(env); err != nil {
			log.Warn().Err(err).Str("conn_id", c.id).Msg("push failed")
		}
	}
}

// PushRaw broadcasts an arbitrary byte payload, valid JSON or not. Tests use
// it to exercise the client's handling of malformed frames.
func (s *Server) PushRaw(raw []byte) {
	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		if err := c.sendRaw(raw); err != nil {
			log.Warn().Err(err).Str("conn_id", c.id).Msg("raw push failed")
		}
	}
}

// PushTo sends one frame to a single connection.
func (s *Server) PushTo(connID string, t room.MessageType, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("type", string(t)).Msg("marshal push payload")
		return
	}
	s.mu.Lock()
	c := s.clients[connID]
	s.mu.Unlock()
	if c == nil {
		return
	}
	if err := c.send(room.Envelope{Type: t, Data: raw}); err != nil {
		log.Warn().Err(err).Str("conn_id", connID).Msg("push failed")
	}
}

// PushRoomUpdate broadcasts the current room state as a room_update frame.
func (s *Server) PushRoomUpdate(message string) {
	s.mu.Lock()
	data := map[string]any{
		"room":        s.state,
		"leaderboard": s.leaderboardLocked(),
	}
	if message != "" {
		data["message"] = message
	}
	s.mu.Unlock()
	s.Push(room.TypeRoomUpdate, data)
}

// SetCurrentEvent updates the hosted room's current event, as the real
// server does when it schedules the next one.
func (s *Server) SetCurrentEvent(ev *room.CurrentEvent) {
	s.mu.Lock()
	s.state.CurrentEvent = ev
	if ev != nil {
		s.state.GameStatus = room.GameStatusInProgress
	}
	s.mu.Unlock()
}

// SetGameStatus updates the hosted room's game status.
func (s *Server) SetGameStatus(status room.GameStatus) {
	s.mu.Lock()
	s.state.GameStatus = status
	s.mu.Unlock()
}

// SetScore sets a player's score on the server-side leaderboard.
func (s *Server) SetScore(name string, score int) {
	s.mu.Lock()
	if p, ok := s.players[name]; ok {
		p.Score = score
	}
	s.mu.Unlock()
}

// Leaderboard returns the hosted room's leaderboard in join order.
func (s *Server) Leaderboard() []room.PlayerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

func (s *Server) leaderboardLocked() []room.PlayerEntry {
	out := make([]room.PlayerEntry, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.players[name])
	}
	return out
}

// DropConnections force-closes every client socket without any close
// handshake, simulating an unexpected network loss.
func (s *Server) DropConnections() {
	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.clients = make(map[string]*client)
	s.mu.Unlock()

	for _, c := range targets {
		c.conn.Close()
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

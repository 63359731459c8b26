// Package arena is the REST collaborator client for the Arena service:
// room bootstrap, game catalog and room creation. The engine consumes its
// GetRoom result as the initial snapshot before the socket takes over.
package arena

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arenahq/roomsync/internal/room"
)

// Client talks to the Arena HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL, e.g. "http://localhost:8000".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetTimeout overrides the default request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.http.Timeout = timeout
}

func (c *Client) request(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s returned status %d: %s", method, endpoint, resp.StatusCode, responseBody)
	}
	return responseBody, nil
}

// GetRoom fetches the current room state. The returned snapshot seeds the
// engine so the first socket push merges without a visible reset.
func (c *Client) GetRoom(ctx context.Context, roomID string) (room.Snapshot, error) {
	raw, err := c.request(ctx, http.MethodGet, "/room/"+roomID, nil)
	if err != nil {
		return room.Snapshot{}, fmt.Errorf("get room %s: %w", roomID, err)
	}

	var payload struct {
		Room        room.RoomState     `json:"room"`
		Leaderboard []room.PlayerEntry `json:"leaderboard"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return room.Snapshot{}, fmt.Errorf("unmarshal room %s: %w", roomID, err)
	}
	return room.NewSnapshot(payload.Room, payload.Leaderboard), nil
}

// GameInfo is one entry in the game catalog.
type GameInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	HasEvents bool   `json:"has_events"`
}

// ListGames fetches the available game catalog.
func (c *Client) ListGames(ctx context.Context) ([]GameInfo, error) {
	raw, err := c.request(ctx, http.MethodGet, "/games", nil)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	var payload struct {
		Games []GameInfo `json:"games"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal games: %w", err)
	}
	return payload.Games, nil
}

// CreateRoomRequest describes a new room.
type CreateRoomRequest struct {
	Name     string `json:"name"`
	GameName string `json:"game_name"`
	HostName string `json:"host_name"`
}

// CreateRoom creates a room and returns its id.
func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal create room request: %w", err)
	}

	raw, err := c.request(ctx, http.MethodPost, "/create-game", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}

	var payload struct {
		RoomID string `json:"room_id"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("unmarshal create room response: %w", err)
	}
	return payload.RoomID, nil
}

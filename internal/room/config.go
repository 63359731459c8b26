package room

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Role determines which outbound actions an engine may send. Reconciliation
// rules are identical for every role.
type Role string

const (
	RoleHost      Role = "host"
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Config holds everything an Engine needs to own one room view.
type Config struct {
	// ServerURL is the websocket base, e.g. "ws://localhost:8000".
	ServerURL  string
	RoomID     string
	PlayerName string
	Role       Role

	// Variant selects the wire type used to commit a choice. Wagering rooms
	// use place_bet; plain trivia rooms use submit_answer.
	Variant SubmitVariant

	// Bootstrap seeds the initial snapshot from the REST collaborator so the
	// first socket push merges without a visible reset.
	Bootstrap *Snapshot

	ReconnectDelay time.Duration
	UpdateBuffer   int

	// Clock drives the one-second tick and the reconnect delay. Tests inject
	// a clockwork fake.
	Clock clockwork.Clock
}

// DefaultConfig returns a player configuration for the given room.
func DefaultConfig(serverURL, roomID, playerName string) Config {
	return Config{
		ServerURL:      serverURL,
		RoomID:         roomID,
		PlayerName:     playerName,
		Role:           RolePlayer,
		Variant:        VariantPlaceBet,
		ReconnectDelay: 3 * time.Second,
		UpdateBuffer:   64,
		Clock:          clockwork.NewRealClock(),
	}
}

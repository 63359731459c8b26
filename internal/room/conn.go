package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ConnEventKind classifies connection lifecycle signals.
type ConnEventKind int

const (
	// ConnConnected fires after the socket is open and the join announcement
	// has been sent.
	ConnConnected ConnEventKind = iota
	// ConnError is a non-fatal transport error; a ConnDisconnected follows.
	ConnError
	// ConnDisconnected fires on an unexpected close. The manager schedules
	// its own reconnect; the owner only surfaces a transient notice.
	ConnDisconnected
)

// ConnEvent is a connection lifecycle signal delivered to the owner.
type ConnEvent struct {
	Kind ConnEventKind
	Err  error
}

var errConnClosed = errors.New("connection manager closed")

// ConnManager owns the single persistent websocket for one room view. On any
// unexpected close it waits a fixed delay and redials, re-running the join
// handshake each time since the server keeps no session across a dropped
// socket. It stops only when Close is called or the run context ends.
type ConnManager struct {
	url            string
	playerName     string
	reconnectDelay time.Duration
	clock          clockwork.Clock
	dialer         *websocket.Dialer

	frames chan []byte
	events chan ConnEvent

	mu      sync.Mutex
	conn    *websocket.Conn
	started bool

	closeOnce sync.Once
	closed    chan struct{}
}

// NewConnManager prepares a manager for ws(s)://server/ws/{roomID}.
func NewConnManager(cfg Config) *ConnManager {
	return &ConnManager{
		url:            fmt.Sprintf("%s/ws/%s", cfg.ServerURL, cfg.RoomID),
		playerName:     cfg.PlayerName,
		reconnectDelay: cfg.ReconnectDelay,
		clock:          cfg.Clock,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		frames: make(chan []byte, 64),
		events: make(chan ConnEvent, 16),
		closed: make(chan struct{}),
	}
}

// Frames delivers raw inbound text frames in arrival order.
func (cm *ConnManager) Frames() <-chan []byte { return cm.frames }

// Events delivers connection lifecycle signals.
func (cm *ConnManager) Events() <-chan ConnEvent { return cm.events }

// Run dials and reads until Close or context cancellation. It must be called
// exactly once; one live connection per room view is the owner's contract.
func (cm *ConnManager) Run(ctx context.Context) error {
	cm.mu.Lock()
	if cm.started {
		cm.mu.Unlock()
		return errors.New("connection manager already running")
	}
	cm.started = true
	cm.mu.Unlock()

	for {
		err := cm.runOnce(ctx)
		if err == nil || errors.Is(err, errConnClosed) || ctx.Err() != nil {
			return nil
		}

		cm.emit(ConnEvent{Kind: ConnError, Err: err})
		cm.emit(ConnEvent{Kind: ConnDisconnected, Err: err})

		// Fixed delay, no backoff: the room should recover indefinitely
		// until the user navigates away.
		timer := cm.clock.NewTimer(cm.reconnectDelay)
		select {
		case <-timer.Chan():
		case <-cm.closed:
			stopAndDrainTimer(timer)
			return nil
		case <-ctx.Done():
			stopAndDrainTimer(timer)
			return nil
		}
	}
}

// runOnce performs one dial / join / read cycle. It returns nil only for an
// intentional shutdown.
func (cm *ConnManager) runOnce(ctx context.Context) error {
	select {
	case <-cm.closed:
		return errConnClosed
	default:
	}

	attempt := uuid.New().String()[:8]
	conn, _, err := cm.dialer.DialContext(ctx, cm.url, nil)
	if err != nil {
		log.Warn().Err(err).Str("attempt", attempt).Str("url", cm.url).Msg("websocket dial failed")
		return fmt.Errorf("dial %s: %w", cm.url, err)
	}

	// The join announcement must be the first frame on every connection; the
	// server uses it to attach the socket to a named participant. Holding the
	// lock keeps Send from interleaving with it.
	cm.mu.Lock()
	if err := conn.WriteJSON(JoinRoom(cm.playerName)); err != nil {
		cm.mu.Unlock()
		conn.Close()
		return fmt.Errorf("send join announcement: %w", err)
	}
	cm.conn = conn
	cm.mu.Unlock()

	log.Info().Str("attempt", attempt).Str("player", cm.playerName).Str("url", cm.url).Msg("connected")
	cm.emit(ConnEvent{Kind: ConnConnected})

	// Unblock the read loop when the owner tears us down.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-cm.closed:
			conn.Close()
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	readErr := cm.readLoop(conn)

	close(watchDone)
	conn.Close()
	cm.mu.Lock()
	cm.conn = nil
	cm.mu.Unlock()

	select {
	case <-cm.closed:
		return errConnClosed
	default:
	}
	if ctx.Err() != nil {
		return errConnClosed
	}
	return readErr
}

func (cm *ConnManager) readLoop(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("unexpected websocket close")
			}
			return fmt.Errorf("read frame: %w", err)
		}
		select {
		case cm.frames <- raw:
		case <-cm.closed:
			return errConnClosed
		}
	}
}

// Send writes one frame on the live connection.
func (cm *ConnManager) Send(env Envelope) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.conn == nil {
		return ErrNotConnected
	}
	if err := cm.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("write %s frame: %w", env.Type, err)
	}
	return nil
}

// Connected reports whether a live socket exists right now.
func (cm *ConnManager) Connected() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.conn != nil
}

// Close tears the connection down intentionally, bypassing the reconnect
// path. Safe to call more than once.
func (cm *ConnManager) Close() {
	cm.closeOnce.Do(func() {
		close(cm.closed)
		cm.mu.Lock()
		if cm.conn != nil {
			cm.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			cm.conn.Close()
		}
		cm.mu.Unlock()
	})
}

func (cm *ConnManager) emit(ev ConnEvent) {
	select {
	case cm.events <- ev:
	default:
		log.Warn().Int("kind", int(ev.Kind)).Msg("connection event buffer full, dropping event")
	}
}

// stopAndDrainTimer stops a timer and drains its channel so a fired timer
// cannot leak a stale tick.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

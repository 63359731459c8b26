package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrEngineClosed is returned by commands issued after the engine loop
	// has stopped.
	ErrEngineClosed = errors.New("engine closed")
	// ErrRoleForbidden is returned when an outbound action is not permitted
	// for the configured role.
	ErrRoleForbidden = errors.New("action not permitted for role")
)

// CountdownView is a read-only view of the countdown for presentation.
type CountdownView struct {
	State     CountdownState
	Remaining int
	Total     int
	Fraction  float64
}

// Update is pushed to the owner whenever the reconciled view changes. Notice,
// when set, is a dismissible transient message (server errors, join/leave
// chatter, connection loss).
type Update struct {
	Snapshot     Snapshot
	Countdown    CountdownView
	Connected    bool
	HasSubmitted bool
	Selected     int
	HasSelection bool
	Notice       string
}

// Engine owns one room view: the snapshot, the countdown, and the submission
// gate. All mutation happens on the single Run goroutine, so an inbound frame
// and a timer tick can never interleave mid-merge. Commands from other
// goroutines are funneled through the same loop.
type Engine struct {
	cfg  Config
	conn *ConnManager

	snap      Snapshot
	countdown Countdown
	gate      Gate

	cmds    chan func()
	updates chan Update

	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
}

// NewEngine builds an engine for one room view. Call Run to start it.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.ServerURL == "" || cfg.RoomID == "" || cfg.PlayerName == "" {
		return nil, errors.New("server URL, room id and player name are required")
	}
	def := DefaultConfig(cfg.ServerURL, cfg.RoomID, cfg.PlayerName)
	if cfg.Role == "" {
		cfg.Role = def.Role
	}
	if cfg.Variant == "" {
		cfg.Variant = def.Variant
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.UpdateBuffer <= 0 {
		cfg.UpdateBuffer = def.UpdateBuffer
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}

	e := &Engine{
		cfg:     cfg,
		conn:    NewConnManager(cfg),
		cmds:    make(chan func(), 16),
		updates: make(chan Update, cfg.UpdateBuffer),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cfg.Bootstrap != nil {
		e.snap = cfg.Bootstrap.Clone()
	}
	return e, nil
}

// Updates delivers a new view after every change. Slow consumers lose
// intermediate updates, never the engine.
func (e *Engine) Updates() <-chan Update { return e.updates }

// Run processes inbound frames, one-second ticks and commands until Close or
// context cancellation. It owns the snapshot for its whole lifetime.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	connDone := make(chan error, 1)
	go func() { connDone <- e.conn.Run(ctx) }()

	ticker := e.cfg.Clock.NewTicker(time.Second)
	defer ticker.Stop()
	defer e.conn.Close()

	log.Info().
		Str("room_id", e.cfg.RoomID).
		Str("player", e.cfg.PlayerName).
		Str("role", string(e.cfg.Role)).
		Msg("room engine started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.closing:
			return nil
		case err := <-connDone:
			return err
		case raw := <-e.conn.Frames():
			e.handleFrame(raw)
		case ev := <-e.conn.Events():
			e.handleConnEvent(ev)
		case <-ticker.Chan():
			e.handleTick()
		case cmd := <-e.cmds:
			cmd()
		}
	}
}

// Close tears the engine down: the countdown stops and the connection closes
// without triggering the reconnect path.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.closing)
		e.conn.Close()
	})
}

func (e *Engine) handleFrame(raw []byte) {
	msg, err := Decode(raw)
	if err != nil {
		// Malformed frames are dropped; they never reach the reconciler.
		log.Warn().Err(err).Msg("discarding undecodable frame")
		return
	}
	if _, ok := msg.(Unknown); ok {
		return
	}

	next, eff := Apply(e.snap, msg)
	e.snap = next

	if eff.ResetSubmission {
		e.gate.Reset()
	}
	if eff.ReseedSeconds > 0 {
		e.countdown.Reseed(eff.ReseedSeconds)
	} else if eff.StopCountdown {
		e.countdown.Halt()
	}
	e.pushUpdate(eff.Notice)
}

func (e *Engine) handleConnEvent(ev ConnEvent) {
	switch ev.Kind {
	case ConnConnected:
		e.pushUpdate("")
	case ConnError:
		log.Warn().Err(ev.Err).Str("room_id", e.cfg.RoomID).Msg("connection error")
	case ConnDisconnected:
		e.pushUpdate("connection lost, reconnecting")
	}
}

func (e *Engine) handleTick() {
	if e.countdown.State() != CountdownRunning {
		return
	}
	e.countdown.Tick()
	e.pushUpdate("")
}

// do runs fn on the engine goroutine and waits for its result.
func (e *Engine) do(fn func() error) error {
	reply := make(chan error, 1)
	select {
	case e.cmds <- func() { reply <- fn() }:
	case <-e.done:
		return ErrEngineClosed
	}
	select {
	case err := <-reply:
		return err
	case <-e.done:
		return ErrEngineClosed
	}
}

// SelectChoice records the local selection for the current event. Rejected
// once a submission has gone out.
func (e *Engine) SelectChoice(answerID int) error {
	if e.cfg.Role == RoleSpectator {
		return ErrRoleForbidden
	}
	return e.do(func() error {
		return e.gate.Select(answerID)
	})
}

// Submit commits the selected choice for the current event. At most one
// submission per event is ever sent; refusals are sentinel errors the caller
// may silently ignore.
func (e *Engine) Submit() error {
	if e.cfg.Role != RolePlayer {
		return ErrRoleForbidden
	}
	return e.do(func() error {
		answerID, err := e.gate.Authorize(e.conn.Connected(), e.snap, &e.countdown)
		if err != nil {
			return err
		}
		if err := e.conn.Send(SubmitChoice(e.cfg.Variant, answerID)); err != nil {
			return fmt.Errorf("send submission: %w", err)
		}
		// Optimistic: not rolled back on ack.
		e.gate.MarkSubmitted()
		e.pushUpdate("")
		return nil
	})
}

// StartGame asks the server to start the game. Host only.
func (e *Engine) StartGame() error {
	if e.cfg.Role != RoleHost {
		return ErrRoleForbidden
	}
	return e.do(func() error {
		return e.conn.Send(StartGame())
	})
}

// Snapshot returns a copy of the current reconciled view.
func (e *Engine) Snapshot() Snapshot {
	var snap Snapshot
	err := e.do(func() error {
		snap = e.snap.Clone()
		return nil
	})
	if err != nil {
		return snap
	}
	return snap
}

func (e *Engine) pushUpdate(notice string) {
	selected, hasSelection := e.gate.Selected()
	u := Update{
		Snapshot: e.snap.Clone(),
		Countdown: CountdownView{
			State:     e.countdown.State(),
			Remaining: e.countdown.Remaining(),
			Total:     e.countdown.Total(),
			Fraction:  e.countdown.Fraction(),
		},
		Connected:    e.conn.Connected(),
		HasSubmitted: e.gate.HasSubmitted(),
		Selected:     selected,
		HasSelection: hasSelection,
		Notice:       notice,
	}
	select {
	case e.updates <- u:
	default:
		// Drop the oldest so the consumer always ends on the latest view.
		select {
		case <-e.updates:
		default:
		}
		select {
		case e.updates <- u:
		default:
		}
	}
}

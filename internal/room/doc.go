// Package room implements the room state synchronization engine for the
// Arena live-room service: one websocket per room, a tolerant decoder over
// the server's frame types, a reconciler that merges every push into a single
// authoritative snapshot, a locally ticking countdown seeded from
// server-declared windows, and a one-shot submission gate.
//
// A single Engine goroutine owns the snapshot; frames, ticks and caller
// commands are all serialized through its loop.
package room

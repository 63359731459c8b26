// arenastub runs the in-process Arena service double as a standalone demo
// backend so roomwatch can be exercised without the real service. It hosts a
// single room and plays a short scripted slate of prediction events when the
// host starts the game.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/arenahq/roomsync/internal/arenatest"
	"github.com/arenahq/roomsync/internal/room"
)

var demoEvents = []room.CurrentEvent{
	{
		ID:       "event_1",
		Question: "Will the Lions score a touchdown on this drive?",
		AnswerChoices: []room.Choice{
			{ID: 1, Text: "Yes"},
			{ID: 2, Text: "No"},
		},
		PointsReward:           33,
		TimerSeconds:           30,
		ResolutionDelaySeconds: 10,
	},
	{
		ID:       "event_2",
		Question: "What will happen on the next play?",
		AnswerChoices: []room.Choice{
			{ID: 1, Text: "Rushing play"},
			{ID: 2, Text: "Passing play"},
			{ID: 3, Text: "Turnover"},
			{ID: 4, Text: "Score"},
		},
		PointsReward:           33,
		TimerSeconds:           20,
		ResolutionDelaySeconds: 8,
	},
	{
		ID:       "event_3",
		Question: "Which team will score next?",
		AnswerChoices: []room.Choice{
			{ID: 1, Text: "Lions"},
			{ID: 2, Text: "Ravens"},
			{ID: 3, Text: "Neither (End of quarter)"},
		},
		PointsReward:           33,
		TimerSeconds:           35,
		ResolutionDelaySeconds: 15,
	},
}

// correctAnswers pairs each demo event with its scripted outcome.
var correctAnswers = map[string]int{
	"event_1": 1,
	"event_2": 2,
	"event_3": 1,
}

func main() {
	var (
		addr     = pflag.String("addr", ":8000", "listen address")
		roomID   = pflag.String("room-id", "demo1234", "hosted room id")
		roomName = pflag.String("room-name", "Pub Quiz", "venue name")
		gameName = pflag.String("game-name", "Lions vs Ravens @ 7pm", "game name")
		hostName = pflag.String("host-name", "host", "host display name")
	)
	pflag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	server := arenatest.NewServer(room.RoomState{
		ID:         *roomID,
		Name:       *roomName,
		GameName:   *gameName,
		HostName:   *hostName,
		GameStatus: room.GameStatusWaiting,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver := &demoDriver{server: server, bets: make(map[string]int)}
	go driver.run(ctx)
	go func() {
		for range server.Joins() {
			// Joins are broadcast by the server itself; nothing to do here.
		}
	}()

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", *addr).Str("room_id", *roomID).Msg("arena stub listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// demoDriver reacts to client frames and plays the scripted event slate.
type demoDriver struct {
	server *arenatest.Server

	mu      sync.Mutex
	started bool
	open    bool
	bets    map[string]int
}

func (d *demoDriver) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-d.server.Frames():
			d.handle(ctx, frame)
		}
	}
}

func (d *demoDriver) handle(ctx context.Context, frame arenatest.ClientFrame) {
	switch frame.Envelope.Type {
	case room.TypeStartGame:
		d.mu.Lock()
		already := d.started
		d.started = true
		d.mu.Unlock()
		if already {
			return
		}
		d.server.SetGameStatus(room.GameStatusInProgress)
		go d.playSlate(ctx)

	case room.TypePlaceBet, room.TypeSubmitAnswer:
		var data struct {
			AnswerID int `json:"answer_id"`
		}
		if err := json.Unmarshal(frame.Envelope.Data, &data); err != nil {
			return
		}
		d.mu.Lock()
		if !d.open {
			d.mu.Unlock()
			d.server.PushTo(frame.ConnID, room.TypeError, map[string]any{
				"message": "Betting window has closed",
			})
			return
		}
		d.bets[frame.PlayerName] = data.AnswerID
		d.mu.Unlock()

		ack := room.TypeAnswerSubmitted
		if frame.Envelope.Type == room.TypePlaceBet {
			ack = room.TypeBetPlaced
		}
		d.server.PushTo(frame.ConnID, ack, map[string]any{
			"answer_id": data.AnswerID,
			"message":   fmt.Sprintf("Bet placed on answer %d", data.AnswerID),
		})
		d.server.PushRoomUpdate(frame.PlayerName + " placed a bet")
	}
}

func (d *demoDriver) playSlate(ctx context.Context) {
	for _, ev := range demoEvents {
		d.mu.Lock()
		d.open = true
		d.bets = make(map[string]int)
		d.mu.Unlock()

		d.server.SetCurrentEvent(&ev)
		d.server.Push(room.TypeNewEvent, map[string]any{
			"event":       ev,
			"leaderboard": d.server.Leaderboard(),
		})

		if !sleep(ctx, time.Duration(ev.TimerSeconds)*time.Second) {
			return
		}

		d.mu.Lock()
		d.open = false
		d.mu.Unlock()
		d.server.Push(room.TypeBettingClosed, map[string]any{
			"event_id":              ev.ID,
			"leaderboard":           d.server.Leaderboard(),
			"resolution_in_seconds": ev.ResolutionDelaySeconds,
		})

		if !sleep(ctx, time.Duration(ev.ResolutionDelaySeconds)*time.Second) {
			return
		}
		d.resolve(ev)

		if !sleep(ctx, 5*time.Second) {
			return
		}
	}

	d.server.SetGameStatus(room.GameStatusCompleted)
	d.server.Push(room.TypeGameEnded, map[string]any{
		"final_leaderboard": d.server.Leaderboard(),
		"total_events":      len(demoEvents),
	})
	log.Info().Msg("demo slate complete")
}

func (d *demoDriver) resolve(ev room.CurrentEvent) {
	correct := correctAnswers[ev.ID]
	correctText := ""
	for _, c := range ev.AnswerChoices {
		if c.ID == correct {
			correctText = c.Text
		}
	}

	d.mu.Lock()
	bets := d.bets
	d.bets = make(map[string]int)
	d.mu.Unlock()

	results := make(map[string]int)
	for _, entry := range d.server.Leaderboard() {
		delta := 0
		if bets[entry.Name] == correct {
			delta = ev.PointsReward
		}
		results[entry.Name] = delta
		d.server.SetScore(entry.Name, entry.Score+delta)
	}

	d.server.SetCurrentEvent(nil)
	d.server.Push(room.TypeEventResolved, map[string]any{
		"event_id":            ev.ID,
		"correct_answer_id":   correct,
		"correct_answer_text": correctText,
		"results":             results,
		"leaderboard":         d.server.Leaderboard(),
	})
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

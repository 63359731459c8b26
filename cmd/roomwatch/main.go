package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/arenahq/roomsync/internal/arena"
	"github.com/arenahq/roomsync/internal/room"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	var (
		configPath = pflag.String("config", "", "path to YAML config file")
		serverURL  = pflag.String("server", getEnv("ARENA_SERVER_URL", "http://localhost:8000"), "Arena HTTP base URL")
		roomID     = pflag.String("room", "", "room id to join")
		playerName = pflag.String("name", getEnv("ARENA_PLAYER_NAME", ""), "display name to join with")
		role       = pflag.String("role", "player", "role: host, player or spectator")
		variant    = pflag.String("variant", "place_bet", "submit variant: submit_answer or place_bet")
		create     = pflag.Bool("create", false, "create a new room before joining (implies --role host)")
		roomName   = pflag.String("room-name", "Arena Room", "venue name when creating a room")
		gameName   = pflag.String("game-name", "", "game name when creating a room (defaults to first catalog entry)")
		debug      = pflag.Bool("debug", false, "dump full snapshots on every update")
	)
	pflag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	fileCfg, err := loadFileConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config file")
	}
	fileCfg.apply(serverURL, roomID, playerName, role, variant)

	if *playerName == "" {
		log.Fatal().Msg("a display name is required (--name or ARENA_PLAYER_NAME)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := arena.NewClient(*serverURL)

	if *create {
		*role = string(room.RoleHost)
		game := *gameName
		if game == "" {
			games, err := api.ListGames(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to list games")
			}
			if len(games) == 0 {
				log.Fatal().Msg("no games available")
			}
			game = games[0].Name
		}
		id, err := api.CreateRoom(ctx, arena.CreateRoomRequest{
			Name:     *roomName,
			GameName: game,
			HostName: *playerName,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create room")
		}
		*roomID = id
		fmt.Printf("created room %s (%s)\n", id, game)
	}

	if *roomID == "" {
		log.Fatal().Msg("a room id is required (--room or --create)")
	}

	bootstrap, err := api.GetRoom(ctx, *roomID)
	if err != nil {
		// Blocking bootstrap failure: nothing to render without it.
		log.Fatal().Err(err).Str("room_id", *roomID).Msg("unable to connect to room")
	}

	cfg := room.DefaultConfig(wsURL(*serverURL), *roomID, *playerName)
	cfg.Role = room.Role(*role)
	cfg.Variant = room.SubmitVariant(*variant)
	cfg.Bootstrap = &bootstrap

	engine, err := room.NewEngine(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create engine")
	}

	go func() {
		if err := engine.Run(ctx); err != nil {
			log.Error().Err(err).Msg("engine stopped")
		}
		cancel()
	}()

	go readCommands(engine, cancel)

	render(room.Update{Snapshot: bootstrap}, *debug)
	for {
		select {
		case <-ctx.Done():
			engine.Close()
			return
		case u := <-engine.Updates():
			render(u, *debug)
		}
	}
}

func render(u room.Update, debug bool) {
	if debug {
		log.Debug().Msg(spew.Sdump(u.Snapshot))
	}
	if u.Notice != "" {
		fmt.Printf("* %s\n", u.Notice)
	}

	snap := u.Snapshot
	fmt.Printf("[%s] %s / %s (%s)\n", snap.Identity.ID, snap.Identity.Name, snap.Identity.GameName, snap.GameStatus)

	if ev := snap.CurrentEvent; ev != nil {
		fmt.Printf("  Q: %s (%d pts, %ds left", ev.Question, ev.PointsReward, u.Countdown.Remaining)
		if u.HasSubmitted {
			fmt.Printf(", submitted #%d", u.Selected)
		}
		fmt.Println(")")
		for _, c := range ev.AnswerChoices {
			marker := " "
			if u.HasSelection && c.ID == u.Selected {
				marker = ">"
			}
			fmt.Printf("   %s %d. %s\n", marker, c.ID, c.Text)
		}
	} else if snap.AnswerStatus == room.AnswerStatusResolved && snap.LastEventResult != nil {
		fmt.Printf("  Resolved: %s\n", snap.LastEventResult.CorrectAnswerText)
	}

	for i, p := range snap.Leaderboard {
		fmt.Printf("  %2d. %-20s %d\n", i+1, p.Name, p.Score)
	}
}

// readCommands turns stdin lines into engine commands: a number selects a
// choice, "s" submits it, "g" starts the game, "q" quits.
func readCommands(engine *room.Engine, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "q":
			cancel()
			return
		case line == "g":
			if err := engine.StartGame(); err != nil {
				log.Warn().Err(err).Msg("start game refused")
			}
		case line == "s":
			if err := engine.Submit(); err != nil {
				log.Debug().Err(err).Msg("submit refused")
			}
		default:
			if id, err := strconv.Atoi(line); err == nil {
				if err := engine.SelectChoice(id); err != nil {
					log.Debug().Err(err).Msg("selection refused")
				}
			}
		}
	}
}

func wsURL(httpURL string) string {
	switch {
	case strings.HasPrefix(httpURL, "https://"):
		return "wss://" + strings.TrimPrefix(httpURL, "https://")
	case strings.HasPrefix(httpURL, "http://"):
		return "ws://" + strings.TrimPrefix(httpURL, "http://")
	default:
		return httpURL
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

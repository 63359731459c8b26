package room

// GameStatus mirrors the server's room lifecycle.
type GameStatus string

const (
	GameStatusWaiting    GameStatus = "waiting"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusCompleted  GameStatus = "completed"
)

// AnswerStatus tracks where the current event is in its answer lifecycle.
type AnswerStatus string

const (
	AnswerStatusNone     AnswerStatus = "none"
	AnswerStatusClosed   AnswerStatus = "closed"
	AnswerStatusResolved AnswerStatus = "resolved"
)

// RoomIdentity holds the fields that anchor every partial update back to the
// same room. Once a field is non-empty it is carried forward: a later payload
// with an empty value means "no information", never a reset.
type RoomIdentity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	GameName string `json:"game_name"`
}

// Merge returns the identity with incoming non-empty fields applied on top of
// the known ones.
func (ri RoomIdentity) Merge(in RoomIdentity) RoomIdentity {
	if in.ID != "" {
		ri.ID = in.ID
	}
	if in.Name != "" {
		ri.Name = in.Name
	}
	if in.GameName != "" {
		ri.GameName = in.GameName
	}
	return ri
}

// Choice is one selectable answer for an event.
type Choice struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// CurrentEvent is the prediction event currently open (or closing) in a room.
type CurrentEvent struct {
	ID                     string   `json:"id"`
	Question               string   `json:"question"`
	AnswerChoices          []Choice `json:"answer_choices"`
	PointsReward           int      `json:"points_reward"`
	TimerSeconds           int      `json:"timer_seconds"`
	ResolutionDelaySeconds int      `json:"resolution_delay_seconds,omitempty"`
}

// PlayerEntry is one leaderboard row. Name is the join key; CurrentBet is the
// choice pending for the running event, if any.
type PlayerEntry struct {
	Name       string `json:"name"`
	Score      int    `json:"score"`
	CurrentBet *int   `json:"current_bet,omitempty"`
}

// EventResult carries the outcome of a resolved event.
type EventResult struct {
	CorrectAnswerID   int            `json:"correct_answer_id"`
	CorrectAnswerText string         `json:"correct_answer_text"`
	Results           map[string]int `json:"results"`
}

// RoomState is the room object exactly as the server serializes it, both in
// the REST bootstrap response and inside room_update frames.
type RoomState struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	GameName     string        `json:"game_name"`
	HostName     string        `json:"host_name"`
	CurrentEvent *CurrentEvent `json:"current_event"`
	GameStatus   GameStatus    `json:"game_status"`
}

// Identity extracts the identity fields from a server room payload.
func (rs RoomState) Identity() RoomIdentity {
	return RoomIdentity{ID: rs.ID, Name: rs.Name, GameName: rs.GameName}
}

// Snapshot is the reconciled local view of a room. It is owned by a single
// Engine goroutine; callers only ever see copies.
type Snapshot struct {
	Identity                   RoomIdentity
	HostName                   string
	GameStatus                 GameStatus
	CurrentEvent               *CurrentEvent
	Leaderboard                []PlayerEntry
	AnswerStatus               AnswerStatus
	LastEventResult            *EventResult
	ResolutionCountdownSeconds int
}

// NewSnapshot builds a snapshot from a server room payload and leaderboard,
// as returned by GET /room/{id} or carried by a room_update frame.
func NewSnapshot(rs RoomState, leaderboard []PlayerEntry) Snapshot {
	snap := Snapshot{
		Identity:     rs.Identity(),
		HostName:     rs.HostName,
		GameStatus:   rs.GameStatus,
		CurrentEvent: rs.CurrentEvent,
		Leaderboard:  SanitizeLeaderboard(leaderboard),
		AnswerStatus: AnswerStatusNone,
	}
	if snap.GameStatus == "" {
		snap.GameStatus = GameStatusWaiting
	}
	return snap
}

// SanitizeLeaderboard drops entries without a usable name. A malformed
// leaderboard degrades to "no players" instead of failing the merge.
func SanitizeLeaderboard(entries []PlayerEntry) []PlayerEntry {
	if entries == nil {
		return nil
	}
	out := make([]PlayerEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Clone returns a deep copy safe to hand outside the engine goroutine.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.CurrentEvent != nil {
		ev := *s.CurrentEvent
		ev.AnswerChoices = append([]Choice(nil), s.CurrentEvent.AnswerChoices...)
		out.CurrentEvent = &ev
	}
	if s.Leaderboard != nil {
		out.Leaderboard = make([]PlayerEntry, len(s.Leaderboard))
		for i, e := range s.Leaderboard {
			if e.CurrentBet != nil {
				bet := *e.CurrentBet
				e.CurrentBet = &bet
			}
			out.Leaderboard[i] = e
		}
	}
	if s.LastEventResult != nil {
		res := *s.LastEventResult
		if s.LastEventResult.Results != nil {
			res.Results = make(map[string]int, len(s.LastEventResult.Results))
			for k, v := range s.LastEventResult.Results {
				res.Results[k] = v
			}
		}
		out.LastEventResult = &res
	}
	return out
}

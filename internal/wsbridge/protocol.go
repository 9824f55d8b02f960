package wsbridge

import "github.com/verte-zerg/droptap/internal/game"

// Intent types sent by clients.
const (
	IntentStart    = "start"
	IntentActivate = "activate"
	IntentReset    = "reset"
)

// Intent is an inbound client message.
type Intent struct {
	Type    string        `json:"type"`
	Profile string        `json:"profile,omitempty"`
	ID      game.TargetID `json:"id,omitempty"`
}

type stateEvent struct {
	Type       string `json:"type"`
	Phase      string `json:"phase"`
	Profile    string `json:"profile"`
	Remaining  int    `json:"remaining"`
	Score      int    `json:"score"`
	Goal       int    `json:"goal"`
	Multiplier int    `json:"multiplier"`
}

type spawnEvent struct {
	Type string        `json:"type"`
	ID   game.TargetID `json:"id"`
	Kind string        `json:"kind"`
}

type resultEvent struct {
	Type       string        `json:"type"`
	ID         game.TargetID `json:"id"`
	Kind       string        `json:"kind"`
	Delta      int           `json:"delta"`
	Score      int           `json:"score"`
	Multiplier int           `json:"multiplier"`
	Win        bool          `json:"win"`
}

type tickEvent struct {
	Type      string `json:"type"`
	Remaining int    `json:"remaining"`
}

type multiplierEvent struct {
	Type       string `json:"type"`
	Multiplier int    `json:"multiplier"`
}

type expiredEvent struct {
	Type string        `json:"type"`
	ID   game.TargetID `json:"id"`
}

type endedEvent struct {
	Type           string `json:"type"`
	Outcome        string `json:"outcome"`
	Score          int    `json:"score"`
	Goal           int    `json:"goal"`
	Remaining      int    `json:"remaining"`
	GoodHits       int    `json:"goodHits"`
	BadHits        int    `json:"badHits"`
	BestStreak     int    `json:"bestStreak"`
	PeakMultiplier int    `json:"peakMultiplier"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

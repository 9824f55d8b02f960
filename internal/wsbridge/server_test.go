package wsbridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/droptap/internal/game"
	"github.com/verte-zerg/droptap/internal/model"
	"github.com/verte-zerg/droptap/internal/profile"
	"github.com/verte-zerg/droptap/internal/store"
)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

type event map[string]any

func testRegistry(t *testing.T) *profile.Registry {
	t.Helper()
	reg, err := profile.NewRegistry([]profile.Profile{
		{Name: "Quick", Duration: 30, ScoreGoal: 1, SpawnInterval: time.Minute, GoodPoints: 1, BadPenalty: 1, BadChance: 0.5},
		{Name: "Long", Duration: 60, ScoreGoal: 50, SpawnInterval: time.Minute, GoodPoints: 1, BadPenalty: 1, BadChance: 0.5},
	}, "Long")
	require.NoError(t, err)
	return reg
}

func dial(t *testing.T, opts Options) *websocket.Conn {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	srv := New(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/play"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, in Intent) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(in))
}

func next(t *testing.T, ws *websocket.Conn) event {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)
	var ev event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func expect(t *testing.T, ws *websocket.Conn, typ string) event {
	t.Helper()
	ev := next(t, ws)
	require.Equal(t, typ, ev["type"], "event %v", ev)
	return ev
}

func TestConnectSendsIdleState(t *testing.T) {
	ws := dial(t, Options{Registry: testRegistry(t)})

	ev := expect(t, ws, "state")
	assert.Equal(t, "idle", ev["phase"])
	assert.Equal(t, "Long", ev["profile"])
	assert.EqualValues(t, 60, ev["remaining"])
}

func TestPlayToWinAndSave(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "droptap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ws := dial(t, Options{
		Registry: testRegistry(t),
		Store:    st,
		Random:   func() game.RandomSource { return fixedRandom(0.99) },
	})
	expect(t, ws, "state")

	send(t, ws, Intent{Type: IntentStart, Profile: "quick"})
	assert.EqualValues(t, 30, expect(t, ws, "tick")["remaining"])
	assert.EqualValues(t, 1, expect(t, ws, "multiplier")["multiplier"])
	spawn := expect(t, ws, "spawn")
	assert.Equal(t, "good", spawn["kind"])

	send(t, ws, Intent{Type: IntentActivate, ID: game.TargetID(spawn["id"].(float64))})
	res := expect(t, ws, "result")
	assert.EqualValues(t, 1, res["delta"])
	assert.EqualValues(t, 1, res["score"])
	assert.Equal(t, true, res["win"])

	ended := expect(t, ws, "ended")
	assert.Equal(t, "win", ended["outcome"])
	assert.EqualValues(t, 1, ended["score"])

	send(t, ws, Intent{Type: IntentReset, Profile: "Quick"})
	expect(t, ws, "tick")
	expect(t, ws, "multiplier")
	assert.Equal(t, "idle", expect(t, ws, "state")["phase"])

	sessions, err := st.ListSessions(context.Background(), model.StatsConfig{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Quick", sessions[0].Difficulty)
	assert.Equal(t, "win", sessions[0].Outcome)
}

func TestBadHitAtZeroReportsPenalty(t *testing.T) {
	ws := dial(t, Options{
		Registry: testRegistry(t),
		Random:   func() game.RandomSource { return fixedRandom(0) },
	})
	expect(t, ws, "state")

	send(t, ws, Intent{Type: IntentStart, Profile: "Long"})
	expect(t, ws, "tick")
	expect(t, ws, "multiplier")
	spawn := expect(t, ws, "spawn")
	require.Equal(t, "bad", spawn["kind"])

	send(t, ws, Intent{Type: IntentActivate, ID: game.TargetID(spawn["id"].(float64))})
	res := expect(t, ws, "result")
	assert.EqualValues(t, -1, res["delta"])
	assert.EqualValues(t, 0, res["score"])
	assert.Equal(t, false, res["win"])
}

func TestResetWhileIdleSwitchesProfile(t *testing.T) {
	ws := dial(t, Options{Registry: testRegistry(t)})
	assert.Equal(t, "Long", expect(t, ws, "state")["profile"])

	send(t, ws, Intent{Type: IntentReset, Profile: "quick"})
	assert.EqualValues(t, 30, expect(t, ws, "tick")["remaining"])
	assert.EqualValues(t, 1, expect(t, ws, "multiplier")["multiplier"])
	ev := expect(t, ws, "state")
	assert.Equal(t, "idle", ev["phase"])
	assert.Equal(t, "Quick", ev["profile"])
	assert.EqualValues(t, 30, ev["remaining"])
	assert.EqualValues(t, 0, ev["score"])
}

func TestUnknownIntentReportsErrorAndKeepsConnection(t *testing.T) {
	ws := dial(t, Options{Registry: testRegistry(t)})
	expect(t, ws, "state")

	send(t, ws, Intent{Type: IntentActivate, ID: 1})
	send(t, ws, Intent{Type: "jump"})
	ev := expect(t, ws, "error")
	assert.Contains(t, ev["message"], "jump")

	send(t, ws, Intent{Type: IntentReset})
	expect(t, ws, "tick")
	expect(t, ws, "multiplier")
	assert.Equal(t, "idle", expect(t, ws, "state")["phase"])
}

func TestInvalidJSONReportsError(t *testing.T) {
	ws := dial(t, Options{Registry: testRegistry(t)})
	expect(t, ws, "state")

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{nope")))
	assert.Equal(t, "invalid message", expect(t, ws, "error")["message"])
}

// Package tui provides the Bubble Tea game screen.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/droptap/internal/clock"
	"github.com/verte-zerg/droptap/internal/game"
	"github.com/verte-zerg/droptap/internal/model"
	"github.com/verte-zerg/droptap/internal/profile"
	"github.com/verte-zerg/droptap/internal/store"
)

const (
	frameInterval       = 50 * time.Millisecond
	defaultFallDuration = 3 * time.Second
	defaultBoardCols    = 60
	defaultBoardRows    = 12
	minBoardCols        = 20
	minBoardRows        = 5
	maxBoardRows        = 24
)

// Store persists finished sessions and reads history for the footer.
type Store interface {
	InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error)
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error)
}

// Options configures a Model.
type Options struct {
	Config   model.Config
	Registry *profile.Registry
	// Store may be nil, in which case results are not saved.
	Store  Store
	Logger *log.Logger
	// Listeners receive session events after the screen has handled them.
	Listeners []game.Listener
	Random    game.RandomSource
	Now       func() time.Time
}

type frameMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

type footerStats struct {
	hasLast bool
	last    model.SessionRecord
	best    int
	wins    int
	total   int
}

type endHook struct {
	game.NopListener
	fn func(game.Result)
}

func (h endHook) OnSessionEnded(r game.Result) {
	h.fn(r)
}

// Model implements the Bubble Tea game UI.
type Model struct {
	config   model.Config
	registry *profile.Registry
	store    Store
	logger   *log.Logger

	clock   *clock.Manual
	session *game.Session
	board   *board

	keys     keyMap
	help     help.Model
	names    []string
	selected int

	width  int
	height int

	result *game.Result
	footer footerStats
	// notice replaces the footer after a failed store call.
	notice string
}

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	badgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E1E1E")).Background(lipgloss.Color("#C89A3A")).Padding(0, 1)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Underline(true)
	goodDropStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	badDropStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	goodFloatStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95DE64"))
	badFloatStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF7875"))
	winStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	loseStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	boardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#595959"))
	shakeStyle     = boardStyle.BorderForeground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs the game screen in the idle phase.
func NewModel(opts Options) *Model {
	if opts.Registry == nil {
		opts.Registry = profile.Builtin()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Random == nil {
		opts.Random = game.NewRandomSource(opts.Config.Seed)
	}
	fall := opts.Config.FallDuration
	if fall <= 0 {
		fall = defaultFallDuration
	}
	seed := opts.Config.Seed
	if seed == 0 {
		seed = opts.Now().UnixNano()
	}

	m := &Model{
		config:   opts.Config,
		registry: opts.Registry,
		store:    opts.Store,
		logger:   opts.Logger,
		clock:    clock.NewManual(opts.Now()),
		keys:     newKeyMap(),
		help:     help.New(),
		names:    opts.Registry.Names(),
	}
	m.board = newBoard(m.clock.Now, fall, seed)

	listeners := game.Listeners{m.board, endHook{fn: m.finish}}
	listeners = append(listeners, opts.Listeners...)
	m.session = game.NewSession(game.Options{
		Registry:  opts.Registry,
		Scheduler: m.clock,
		Random:    opts.Random,
		Listener:  listeners,
		DropTTL:   opts.Config.DropTTL,
	})

	current := opts.Registry.Get(opts.Config.Difficulty).Name
	for i, name := range m.names {
		if name == current {
			m.selected = i
		}
	}
	m.session.ResetToIdle(current)
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return frameTick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.board.resize(m.boardSize())
		return m, nil
	case frameMsg:
		m.clock.AdvanceTo(time.Time(msg))
		m.board.prune(m.clock.Now())
		return m, frameTick()
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		m.handleKey(msg)
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	switch m.session.State().Phase {
	case game.Idle:
		switch {
		case key.Matches(msg, m.keys.Prev):
			m.selectProfile(m.selected - 1)
		case key.Matches(msg, m.keys.Next):
			m.selectProfile(m.selected + 1)
		case key.Matches(msg, m.keys.Start):
			m.start()
		}
	case game.Running:
		if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
			return
		}
		if id, ok := m.board.byLabel(unicode.ToLower(msg.Runes[0])); ok {
			m.session.Activate(id)
		}
	case game.Ended:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.result = nil
			m.board.reset()
			m.session.ResetToIdle(m.currentName())
		case key.Matches(msg, m.keys.Replay):
			m.start()
		}
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if !m.config.Mouse || m.session.State().Phase != game.Running {
		return
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}
	x, y := m.boardOrigin()
	if id, ok := m.board.hit(msg.X-x, msg.Y-y, m.clock.Now()); ok {
		m.session.Activate(id)
	}
}

func (m *Model) selectProfile(i int) {
	if i < 0 || i >= len(m.names) || i == m.selected {
		return
	}
	m.selected = i
	m.session.ResetToIdle(m.currentName())
	m.loadFooterStats()
}

func (m *Model) currentName() string {
	if len(m.names) == 0 {
		return ""
	}
	return m.names[m.selected]
}

func (m *Model) start() {
	m.result = nil
	m.board.reset()
	m.session.StartSession(m.currentName())
}

func (m *Model) finish(r game.Result) {
	m.result = &r
	if m.store == nil {
		return
	}
	rec := store.RecordFromResult(r)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := m.store.InsertSession(ctx, rec); err != nil {
		m.logger.Error("failed to save session", "err", err)
		m.notice = "Could not save this session"
		return
	}
	m.notice = ""
	m.footer.add(rec)
}

func (m *Model) loadFooterStats() {
	m.footer = footerStats{}
	m.notice = ""
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{Difficulty: m.currentName()})
	if err != nil {
		m.logger.Error("failed to load session stats", "err", err)
		m.notice = "Could not load history"
		return
	}
	for _, s := range sessions {
		m.footer.add(s)
	}
}

func (f *footerStats) add(rec model.SessionRecord) {
	f.hasLast = true
	f.last = rec
	f.total++
	if rec.Won() {
		f.wins++
	}
	if rec.Score > f.best {
		f.best = rec.Score
	}
}

func (m *Model) boardSize() (int, int) {
	if m.width == 0 || m.height == 0 {
		return defaultBoardCols, defaultBoardRows
	}
	cols := int(float64(m.width) * 0.70)
	cols = minInt(maxInt(cols, minBoardCols), maxInt(m.width-2, 1))
	rows := m.height - 6
	rows = minInt(maxInt(rows, minBoardRows), maxBoardRows)
	return cols, rows
}

// layout returns the left padding and top padding of the content block.
func (m *Model) layout() (int, int) {
	if m.width == 0 || m.height == 0 {
		return 0, 0
	}
	contentHeight := m.board.rows + 4
	left := maxInt(0, (m.width-(m.board.cols+2))/2)
	top := maxInt(0, (m.height-1-contentHeight)/2)
	return left, top
}

// boardOrigin returns the screen cell of the first board cell.
func (m *Model) boardOrigin() (int, int) {
	left, top := m.layout()
	return left + 1, top + 2
}

// View implements tea.Model.
func (m *Model) View() string {
	st := m.session.State()
	now := m.clock.Now()
	boxWidth := m.board.cols + 2

	var area []string
	switch st.Phase {
	case game.Running:
		area = m.board.render(now)
	case game.Ended:
		area = m.fill(m.renderResult())
	default:
		area = m.fill(m.renderIdle(st))
	}
	style := boardStyle
	if m.board.shaking(now) {
		style = shakeStyle
	}
	box := style.Render(strings.Join(area, "\n"))

	bindings := m.keys.idleHelp()
	switch st.Phase {
	case game.Running:
		bindings = m.keys.runningHelp()
	case game.Ended:
		bindings = m.keys.endedHelp()
	}

	lines := []string{lipgloss.PlaceHorizontal(boxWidth, lipgloss.Center, m.renderHeader(st))}
	lines = append(lines, strings.Split(box, "\n")...)
	lines = append(lines, lipgloss.PlaceHorizontal(boxWidth, lipgloss.Center, m.help.ShortHelpView(bindings)))

	left, top := m.layout()
	pad := strings.Repeat(" ", left)
	var b strings.Builder
	for i := 0; i < top; i++ {
		b.WriteString("\n")
	}
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pad)
		b.WriteString(line)
	}
	footer := m.renderFooter()
	if footer == "" {
		return b.String()
	}
	if m.height > 0 {
		for i := top + len(lines); i < m.height-1; i++ {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	if m.width > 0 {
		footer = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
	}
	b.WriteString(footer)
	return b.String()
}

// fill centers content inside the board area.
func (m *Model) fill(content string) []string {
	placed := lipgloss.Place(m.board.cols, m.board.rows, lipgloss.Center, lipgloss.Center, content)
	return strings.Split(placed, "\n")
}

func (m *Model) renderHeader(st game.State) string {
	if st.Phase == game.Idle {
		return titleStyle.Render("droptap")
	}
	header := headerStyle.Render(fmt.Sprintf("Time %2d   Score %d   Goal %d", st.RemainingSeconds, st.Score, st.Profile.ScoreGoal))
	if st.Multiplier > 1 {
		header += " " + badgeStyle.Render(fmt.Sprintf("x%d", st.Multiplier))
	}
	return header
}

func (m *Model) renderIdle(st game.State) string {
	names := make([]string, len(m.names))
	for i, name := range m.names {
		if i == m.selected {
			names[i] = selectedStyle.Render(name)
		} else {
			names[i] = mutedStyle.Render(name)
		}
	}
	p := st.Profile
	preview := fmt.Sprintf("%ds · goal %d · drop every %.2gs · %d%% bad",
		p.Duration, p.ScoreGoal, p.SpawnInterval.Seconds(), int(p.BadChance*100+0.5))
	hint := mutedStyle.Render("tap (x) drops, avoid [x] drops")
	return lipgloss.JoinVertical(lipgloss.Center,
		"‹ "+strings.Join(names, "  ")+" ›",
		"",
		headerStyle.Render(preview),
		hint,
	)
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return ""
	}
	r := m.result
	title := loseStyle.Render(fmt.Sprintf("Time's up. Score: %d", r.FinalScore))
	if r.Outcome == game.Win {
		title = winStyle.Render(fmt.Sprintf("You win! Score: %d", r.FinalScore))
	}
	detail := mutedStyle.Render(fmt.Sprintf("%d hits · %d bad · best streak %d · peak x%d",
		r.Tally.GoodHits, r.Tally.BadHits, r.Tally.BestStreak, r.Tally.PeakMultiplier))
	return lipgloss.JoinVertical(lipgloss.Center, title, "", detail)
}

func (m *Model) renderFooter() string {
	if m.notice != "" {
		return loseStyle.Render(m.notice)
	}
	if !m.footer.hasLast {
		return ""
	}
	f := m.footer
	footer := fmt.Sprintf("Last: %s %d · Best %d · Wins %d/%d", f.last.Outcome, f.last.Score, f.best, f.wins, f.total)
	return footerStyle.Render(footer)
}

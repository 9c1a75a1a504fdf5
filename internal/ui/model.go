package ui

import (
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/castaway/internal/logging/events"
	"github.com/atomicstack/castaway/internal/message"
	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/state"
	"github.com/atomicstack/castaway/internal/theme"
	"github.com/atomicstack/castaway/internal/ui/panel"
	uistate "github.com/atomicstack/castaway/internal/ui/state"
)

type Pane int

const (
	PanePodcasts Pane = iota
	PaneEpisodes
)

func (p Pane) String() string {
	if p == PaneEpisodes {
		return "episodes"
	}
	return "podcasts"
}

const (
	defaultWidth  = 80
	defaultHeight = 24
	feedPrompt    = "Feed URL: "
	pickerHeader  = "New episodes: space toggles, a toggles all, enter downloads, esc skips"
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Model implements the Bubble Tea model for the two-pane podcast browser.
type Model struct {
	podcasts *state.Store[podcast.Podcast]
	ch       message.Channels

	podPanel *panel.Panel
	epPanel  *panel.Panel
	podMenu  *uistate.Menu[podcast.Podcast]
	epMenu   *uistate.Menu[podcast.Episode]
	active   Pane

	pickPanel *panel.Panel
	picker    *uistate.Menu[podcast.NewEpisode]

	input       textinput.Model
	inputActive bool

	message     string
	messageErr  bool
	messageSeq  int
	messageTime time.Duration

	width  int
	height int

	err      error
	quitting bool

	handlers map[reflect.Type]msgHandler

	// directiveCmd and tick are replaced by the test harness so nothing
	// blocks or sleeps.
	directiveCmd func(*message.Queue[message.Directive]) tea.Cmd
	tick         func(time.Duration, func(time.Time) tea.Msg) tea.Cmd
}

// NewModel lays out both panes over the shared podcast store. Non-positive
// dimensions fall back to 80x24 until the first resize.
func NewModel(podcasts *state.Store[podcast.Podcast], ch message.Channels, width, height int) *Model {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	m := &Model{
		podcasts:     podcasts,
		ch:           ch,
		width:        width,
		height:       height,
		messageTime:  5 * time.Second,
		directiveCmd: waitForDirective,
		tick:         tea.Tick,
	}
	podW, epW, rows := m.geometry()
	m.podPanel = panel.New("Podcasts", rows, podW-4, 0, 0)
	m.epPanel = panel.New("Episodes", rows, epW-4, 0, podW)
	m.podMenu = uistate.New(m.podPanel, "", podcasts)
	m.podMenu.KeepHighlight = true
	m.epMenu = uistate.New(m.epPanel, "", m.currentEpisodes())
	m.podMenu.Init()
	m.epMenu.Init()
	m.highlight()

	ti := textinput.New()
	ti.Prompt = feedPrompt
	ti.PromptStyle = *styles.Prompt
	ti.Cursor.Style = *styles.Cursor
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.CharLimit = 2048
	m.input = ti

	m.registerHandlers()
	return m
}

// SetMessageDuration overrides how long locally raised messages stay up.
func (m *Model) SetMessageDuration(d time.Duration) {
	if d > 0 {
		m.messageTime = d
	}
}

// Err returns the error the controller tore the UI down with, if any.
func (m *Model) Err() error {
	return m.err
}

// Active reports the focused pane.
func (m *Model) Active() Pane {
	return m.active
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	return m.waitDirective()
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if handler := m.handlerFor(msg); handler != nil {
		return m, handler(msg)
	}
	return m, nil
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):          m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}):   m.handleWindowSizeMsg,
		reflect.TypeOf(directiveMsg{}):        m.handleDirectiveMsg,
		reflect.TypeOf(directivesClosedMsg{}): m.handleDirectivesClosedMsg,
		reflect.TypeOf(messageExpiredMsg{}):   m.handleMessageExpiredMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	size, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	events.UI.Resize(size.Width, size.Height)
	m.width = size.Width
	m.height = size.Height
	m.layout()
	return nil
}

// geometry splits the screen: the podcast pane takes half the width, both
// panes leave the bottom row for messages and input.
func (m *Model) geometry() (podW, epW, rows int) {
	podW = m.width / 2
	epW = m.width - podW
	rows = m.height - 3
	if rows < 0 {
		rows = 0
	}
	return podW, epW, rows
}

func (m *Model) layout() {
	podW, epW, rows := m.geometry()
	m.podMenu.Resize(rows, podW-4, 0, 0)
	m.epMenu.Resize(rows, epW-4, 0, podW)
	m.podMenu.UpdateItems()
	m.epMenu.UpdateItems()
	if m.picker != nil {
		m.picker.Resize(rows, m.width-4, 0, 0)
		m.picker.UpdateItems()
		m.picker.HighlightSelected(true)
	}
	m.input.Width = m.width - len(feedPrompt) - 1
	m.highlight()
}

// currentEpisodes returns the episode store of the podcast under the
// podcast cursor, or an empty store.
func (m *Model) currentEpisodes() *state.Store[podcast.Episode] {
	if m.podMenu != nil {
		if eps, ok := uistate.EpisodesOf(m.podMenu); ok {
			return eps
		}
	}
	return state.NewStore[podcast.Episode](nil)
}

// followPodcast points the episode menu at the podcast under the cursor
// and resets its cursor to the first episode.
func (m *Model) followPodcast() {
	m.epMenu.Items = m.currentEpisodes()
	m.epMenu.TopRow = 0
	m.epMenu.Selected = m.epMenu.StartRow
	m.epMenu.UpdateItems()
}

// refreshMenus repaints both panes from the stores. The episode menu is
// re-pointed when the podcast under the cursor changed.
func (m *Model) refreshMenus() {
	before := m.epMenu.Items
	m.podMenu.UpdateItems()
	if eps := m.currentEpisodes(); eps != before {
		m.followPodcast()
	} else {
		m.epMenu.UpdateItems()
	}
	if m.active == PaneEpisodes && m.epMenu.Items.Len() == 0 {
		m.active = PanePodcasts
	}
	m.highlight()
}

func (m *Model) highlight() {
	switch m.active {
	case PaneEpisodes:
		m.podMenu.Deactivate()
		m.epMenu.Activate()
	default:
		m.podMenu.Activate()
		m.epMenu.Deactivate()
	}
}

func (m *Model) setMessage(text string, d time.Duration, isError bool) tea.Cmd {
	if d <= 0 {
		d = m.messageTime
	}
	m.message = text
	m.messageErr = isError
	m.messageSeq++
	seq := m.messageSeq
	return m.tick(d, func(time.Time) tea.Msg { return messageExpiredMsg{seq: seq} })
}

type messageExpiredMsg struct {
	seq int
}

func (m *Model) handleMessageExpiredMsg(msg tea.Msg) tea.Cmd {
	expired, ok := msg.(messageExpiredMsg)
	if !ok {
		return nil
	}
	if expired.seq == m.messageSeq {
		m.message = ""
		m.messageErr = false
	}
	return nil
}

func (m *Model) send(intent message.Intent) {
	m.ch.Intents.Send(intent)
}

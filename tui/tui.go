// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive deal board with stage tabs, detail, edit, graph, and delete views
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/harperreed/dealdesk/viz"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewConfirmDelete
)

// Tab indexes: 0 is every deal, 1..7 are the pipeline stages, and the last
// tab lists stale deals.
const (
	tabAll   = 0
	tabStale = 8
	numTabs  = 9
)

// storeChangedMsg is sent when the store publishes a new snapshot.
type storeChangedMsg struct {
	version uint64
}

// Model is the main bubbletea model
type Model struct {
	store     *pipeline.Store
	generator *viz.GraphGenerator
	viewMode  ViewMode
	tab       int

	// List view state
	selectedRow int
	searching   bool
	searchInput textinput.Model
	searchQuery string

	// Detail view state
	selectedID uuid.UUID

	// Edit view state
	formInputs []textinput.Model
	focusIndex int

	// Graph view state
	graphDOT string

	// Footer message after a move, save, or delete
	status string

	width  int
	height int
	err    error
	now    func() time.Time
	ctx    context.Context
	events chan storeChangedMsg
}

// NewModel creates a new TUI model over store.
func NewModel(store *pipeline.Store, generator *viz.GraphGenerator) Model {
	search := textinput.New()
	search.Placeholder = "address, contact, notes..."
	search.Prompt = "/ "
	search.CharLimit = 100

	return Model{
		store:       store,
		generator:   generator,
		viewMode:    ViewList,
		tab:         tabAll,
		searchInput: search,
		width:       100,
		height:      30,
		now:         time.Now,
		ctx:         context.Background(),
		events:      make(chan storeChangedMsg, 1),
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, store *pipeline.Store, generator *viz.GraphGenerator) error {
	m := NewModel(store, generator)
	m.ctx = ctx

	unsubscribe := store.Subscribe(func(snap pipeline.Snapshot) {
		select {
		case m.events <- storeChangedMsg{version: snap.Version}:
		default:
		}
	})
	defer unsubscribe()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

// waitForChange blocks on the store subscription so edits made elsewhere,
// like the aging job, trigger a redraw.
func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case storeChangedMsg:
		m.clampSelection()
		return m, m.waitForChange()
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text entry owns every key except ctrl+c.
	typing := m.searching || m.viewMode == ViewEdit
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !typing {
			return m, tea.Quit
		}
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// stageColors maps the pipeline's named colors onto ANSI colors.
var stageColors = map[string]lipgloss.Color{
	"gray":   lipgloss.Color("245"),
	"blue":   lipgloss.Color("33"),
	"indigo": lipgloss.Color("63"),
	"yellow": lipgloss.Color("220"),
	"purple": lipgloss.Color("135"),
	"green":  lipgloss.Color("40"),
	"red":    lipgloss.Color("196"),
}

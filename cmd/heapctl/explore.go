package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/logger"
)

func init() {
	rootCmd.AddCommand(newExploreCmd())
}

func newExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Interactive block map",
		Long: `The explore command opens a terminal UI listing every block of the
arena. Blocks can be allocated, freed and inspected interactively; press ?
for the key bindings.

Example:
  heapctl explore
  heapctl explore --file arena.bin --guard`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore()
		},
	}
	return cmd
}

func runExplore() error {
	a, err := openArena(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("starting explorer", "size", a.Size(), "fit", a.Fit().String())
	p := tea.NewProgram(NewModel(a.Heap), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// Layout constants
const (
	chromeHeight  = 6 // header, bar, column titles, status and input lines
	defaultHeight = 24
	barWidth      = 64
)

// Model is the explorer state. The heap is shared between model copies.
type Model struct {
	h      *heap.Heap
	blocks []heap.Block
	keys   KeyMap

	cursor int
	top    int
	width  int
	height int

	// Allocation prompt
	inputMode   bool
	inputBuffer string

	showHelp      bool
	statusMessage string
	err           error

	copyText func(string) error
}

// NewModel builds an explorer over h.
func NewModel(h *heap.Heap) Model {
	m := Model{h: h, keys: DefaultKeyMap(), copyText: clipboard.WriteAll}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// refresh reloads the block list and keeps the cursor in range.
func (m *Model) refresh() {
	blocks, err := m.h.Blocks()
	if err != nil {
		m.err = err
		return
	}
	m.blocks = blocks
	m.cursor = min(m.cursor, max(len(blocks)-1, 0))
	m.scroll()
}

func (m Model) rows() int {
	h := m.height
	if h == 0 {
		h = defaultHeight
	}
	return max(h-chromeHeight, 1)
}

// scroll keeps the cursor inside the visible window.
func (m *Model) scroll() {
	rows := m.rows()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+rows {
		m.top = m.cursor - rows + 1
	}
}

func (m Model) selected() (heap.Block, bool) {
	if m.cursor < 0 || m.cursor >= len(m.blocks) {
		return heap.Block{}, false
	}
	return m.blocks[m.cursor], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scroll()
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
				m.showHelp = false
			}
			return m, nil
		}
		if m.inputMode {
			return m.handleInput(msg), nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleInput(msg tea.KeyMsg) Model {
	switch {
	case key.Matches(msg, m.keys.Esc):
		m.inputMode, m.inputBuffer = false, ""
	case key.Matches(msg, m.keys.Enter):
		m.inputMode = false
		m.alloc(m.inputBuffer)
		m.inputBuffer = ""
	case msg.Type == tea.KeyBackspace:
		if len(m.inputBuffer) > 0 {
			m.inputBuffer = m.inputBuffer[:len(m.inputBuffer)-1]
		}
	case msg.Type == tea.KeyRunes:
		m.inputBuffer += string(msg.Runes)
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(m.cursor+1, max(len(m.blocks)-1, 0))
	case key.Matches(msg, m.keys.PageUp):
		m.cursor = max(m.cursor-m.rows(), 0)
	case key.Matches(msg, m.keys.PageDn):
		m.cursor = min(m.cursor+m.rows(), max(len(m.blocks)-1, 0))
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
	case key.Matches(msg, m.keys.End):
		m.cursor = max(len(m.blocks)-1, 0)
	case key.Matches(msg, m.keys.Alloc):
		m.inputMode, m.inputBuffer = true, ""
	case key.Matches(msg, m.keys.Free):
		m.free()
	case key.Matches(msg, m.keys.Fit):
		next := heap.Strategies[(int(m.h.Fit())+1)%len(heap.Strategies)]
		if err := m.h.SetFit(next); err != nil {
			m.statusMessage = err.Error()
		} else {
			m.statusMessage = fmt.Sprintf("fit strategy: %s", next)
		}
	case key.Matches(msg, m.keys.Reset):
		m.h.Reset()
		m.cursor, m.top = 0, 0
		m.statusMessage = "arena reset"
		m.refresh()
	case key.Matches(msg, m.keys.Copy):
		m.copyRef()
	}
	m.scroll()
	return m, nil
}

func (m *Model) alloc(input string) {
	size, err := strconv.ParseInt(strings.TrimSpace(input), 0, strconv.IntSize)
	if err != nil {
		m.statusMessage = fmt.Sprintf("invalid size %q", input)
		return
	}
	ref, err := m.h.Alloc(int(size))
	if err != nil {
		m.statusMessage = err.Error()
		return
	}
	m.refresh()
	m.statusMessage = fmt.Sprintf("allocated %d bytes at %#x", size, uint64(ref))
	for i, b := range m.blocks {
		if !b.Free && refOf(m.h, b) == ref {
			m.cursor = i
			break
		}
	}
}

func (m *Model) free() {
	b, ok := m.selected()
	if !ok || b.Free {
		m.statusMessage = "select a used block to free"
		return
	}
	ref := refOf(m.h, b)
	if err := m.h.Free(ref); err != nil {
		m.statusMessage = err.Error()
		return
	}
	m.statusMessage = fmt.Sprintf("freed %#x", uint64(ref))
	m.refresh()
}

func (m *Model) copyRef() {
	b, ok := m.selected()
	if !ok {
		return
	}
	text := fmt.Sprintf("%#x", uint64(b.Offset))
	if !b.Free {
		text = fmt.Sprintf("%#x", uint64(refOf(m.h, b)))
	}
	if err := m.copyText(text); err != nil {
		m.statusMessage = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.statusMessage = "copied " + text
}

// View renders the entire UI
func (m Model) View() string {
	if m.err != nil {
		return paint(errorStyle, fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.showHelp {
		help := helpView{keys: m.keys}
		return overlay.New(help, mainView{m: m}, overlay.Center, overlay.Center, 0, 0).View()
	}
	return m.renderMain()
}

func (m Model) renderMain() string {
	header := paint(headerStyle, "Heap Explorer") + "  " +
		numbers.Sprintf("%d bytes, %s-fit, align %d, guard %v", m.h.Size(), m.h.Fit(), m.h.Alignment(), m.h.Guarded())

	lines := []string{header, "[" + renderBar(m.h, m.blocks, barWidth) + "]", paint(descStyle, "  offset        size  state")}
	end := min(m.top+m.rows(), len(m.blocks))
	for i := m.top; i < end; i++ {
		row := describeBlock(m.h, m.blocks[i])
		if i == m.cursor {
			lines = append(lines, paint(selectedStyle, "> "+row))
		} else {
			lines = append(lines, "  "+row)
		}
	}

	status := fmt.Sprintf("%d/%d  last error: %s", m.cursor+1, len(m.blocks), m.h.LastError())
	if m.statusMessage != "" {
		status += "  " + m.statusMessage
	}
	lines = append(lines, paint(statusStyle, status))
	if m.inputMode {
		lines = append(lines, "alloc size: "+m.inputBuffer+"_")
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// mainView adapts the explorer as the background model of the help overlay.
type mainView struct{ m Model }

func (v mainView) Init() tea.Cmd                       { return nil }
func (v mainView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }

// View pads the explorer to the window height so the overlay always fits.
func (v mainView) View() string {
	height := v.m.height
	if height == 0 {
		height = defaultHeight
	}
	return lipgloss.PlaceVertical(height, lipgloss.Top, v.m.renderMain())
}

// helpView is the foreground of the help overlay.
type helpView struct{ keys KeyMap }

func (v helpView) Init() tea.Cmd                       { return nil }
func (v helpView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }

func (v helpView) View() string {
	var sb strings.Builder
	sb.WriteString(paint(helpTitleStyle, "Key Bindings"))
	sb.WriteString("\n")
	for _, b := range v.keys.helpBindings() {
		h := b.Help()
		fmt.Fprintf(&sb, "%s  %s\n", paint(helpKeyStyle, fmt.Sprintf("%-6s", h.Key)), h.Desc)
	}
	return helpBoxStyle.Render(strings.TrimSuffix(sb.String(), "\n"))
}

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bnema/wlturbo/wl"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/toolkit"
	"github.com/bnema/wltk/internal/ui"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Inspect compositor globals, outputs and seats",
	Long: `Show a live view of the compositor registry: advertised globals in a
scrollable table, plus output geometry and seat capabilities. Globals
appearing or vanishing while the view is open show up on the next
refresh.`,
	RunE: runInfo,
}

const infoRefreshInterval = 500 * time.Millisecond

var infoHeaderStyle = ui.BoldStyle.Foreground(ui.ColorPrimary)

// infoSnapshot is the registry state gathered on the loop goroutine.
type infoSnapshot struct {
	globals []wl.Global
	outputs []outputInfo
	seats   []seatInfo
}

type outputInfo struct {
	name     uint32
	geometry protocols.OutputGeometry
	mode     protocols.OutputMode
	hasMode  bool
	scale    int32
}

type seatInfo struct {
	name string
	caps uint32
}

func collectInfo(d *toolkit.Display) infoSnapshot {
	var snap infoSnapshot
	for _, g := range d.Globals() {
		snap.globals = append(snap.globals, g)
	}
	sort.Slice(snap.globals, func(i, j int) bool {
		return snap.globals[i].Name < snap.globals[j].Name
	})
	for _, o := range d.Outputs() {
		info := outputInfo{
			name:     o.GlobalName(),
			geometry: o.Proxy().Geometry(),
			scale:    o.Proxy().Scale(),
		}
		info.mode, info.hasMode = o.Proxy().CurrentMode()
		snap.outputs = append(snap.outputs, info)
	}
	for _, in := range d.Inputs() {
		snap.seats = append(snap.seats, seatInfo{
			name: in.Seat().Name(),
			caps: in.Capabilities(),
		})
	}
	return snap
}

func capabilityNames(caps uint32) string {
	var names []string
	if caps&protocols.SeatCapabilityPointer != 0 {
		names = append(names, "pointer")
	}
	if caps&protocols.SeatCapabilityKeyboard != 0 {
		names = append(names, "keyboard")
	}
	if caps&protocols.SeatCapabilityTouch != 0 {
		names = append(names, "touch")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

type infoTickMsg time.Time

type infoSnapshotMsg infoSnapshot

func infoTick() tea.Cmd {
	return tea.Tick(infoRefreshInterval, func(t time.Time) tea.Msg {
		return infoTickMsg(t)
	})
}

type infoModel struct {
	display *toolkit.Display
	table   table.Model
	snap    infoSnapshot
	width   int
	height  int
}

// refresh gathers a snapshot on the loop goroutine. Toolkit state is
// only touched there; the deferred task hands the copy back over a
// channel.
func (m *infoModel) refresh() tea.Msg {
	ch := make(chan infoSnapshot, 1)
	m.display.Defer(func() {
		ch <- collectInfo(m.display)
	})
	select {
	case snap := <-ch:
		return infoSnapshotMsg(snap)
	case <-time.After(time.Second):
		return nil
	}
}

func globalRows(globals []wl.Global) []table.Row {
	rows := make([]table.Row, 0, len(globals))
	for _, g := range globals {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", g.Name),
			g.Interface,
			fmt.Sprintf("%d", g.Version),
		})
	}
	return rows
}

func (m *infoModel) Init() tea.Cmd {
	return tea.Batch(m.refresh, infoTick())
}

func (m *infoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case infoTickMsg:
		return m, tea.Batch(m.refresh, infoTick())
	case infoSnapshotMsg:
		m.snap = infoSnapshot(msg)
		m.table.SetRows(globalRows(m.snap.globals))
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *infoModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := ui.TitleStyle.Render("Wayland Registry")

	var outputs []string
	for _, o := range m.snap.outputs {
		line := fmt.Sprintf("output %d: %s %s", o.name,
			o.geometry.Make, o.geometry.Model)
		if o.hasMode {
			line += fmt.Sprintf("  %dx%d@%dHz",
				o.mode.Width, o.mode.Height, o.mode.Refresh/1000)
		}
		line += fmt.Sprintf("  at %d,%d scale %d",
			o.geometry.X, o.geometry.Y, o.scale)
		outputs = append(outputs, line)
	}
	if len(outputs) == 0 {
		outputs = append(outputs, ui.SubtleStyle.Render("no outputs"))
	}

	var seats []string
	for _, s := range m.snap.seats {
		seats = append(seats, fmt.Sprintf("seat %q: %s", s.name, capabilityNames(s.caps)))
	}
	if len(seats) == 0 {
		seats = append(seats, ui.SubtleStyle.Render("no seats"))
	}

	controls := ui.SubtleStyle.Render("[up/down] scroll  •  [q] quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		ui.BoxStyle.Render(m.table.View()),
		"",
		infoHeaderStyle.Render("Outputs"),
		strings.Join(outputs, "\n"),
		"",
		infoHeaderStyle.Render("Seats"),
		strings.Join(seats, "\n"),
		"",
		controls,
	)
}

func runInfo(cmd *cobra.Command, args []string) error {
	d, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer d.Close()

	columns := []table.Column{
		{Title: "Name", Width: 6},
		{Title: "Interface", Width: 36},
		{Title: "Version", Width: 7},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(ui.ColorPrimary)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	m := &infoModel{display: d, table: t}

	loopErr := make(chan error, 1)
	go func() { loopErr <- d.Run() }()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run UI: %w", err)
	}

	d.Exit()
	return <-loopErr
}

package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"loudctl/control"
	"loudctl/tray"
)

// TUI message types
type StatusMsg struct{ Status control.Status }
type LogMsg struct{ Text string }
type tickMsg time.Time

const (
	meterWidth = 40
	meterMinDB = -60.0
)

type tuiModel struct {
	status  control.Status
	device  string
	sink    string
	lastLog string
	now     time.Time
	width   int

	nudge  func(delta float64)
	toggle func()
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(9)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	onStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	offStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true)
	barLow     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	barNear    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	barHot     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	barOff     = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	barMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	modeStyles = map[control.Mode]lipgloss.Style{
		control.ModeTracking:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		control.ModeAdjusting: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		control.ModeSilent:    dimStyle,
		control.ModePaused:    warnStyle,
		control.ModeDisabled:  dimStyle,
	}
)

func NewTUIProgram(device, sink string, nudge func(float64), toggle func()) *tea.Program {
	m := tuiModel{device: device, sink: sink, nudge: nudge, toggle: toggle, now: time.Now()}
	return tea.NewProgram(m, tea.WithAltScreen())
}

// tuiTick keeps the pause countdown moving between status updates.
func tuiTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "+", "=", "up":
			if m.nudge != nil {
				m.nudge(tray.NudgeStep)
			}
		case "-", "_", "down":
			if m.nudge != nil {
				m.nudge(-tray.NudgeStep)
			}
		case "e":
			if m.toggle != nil {
				m.toggle()
			}
		}

	case tickMsg:
		m.now = time.Time(msg)
		return m, tuiTick()

	case StatusMsg:
		m.status = msg.Status
		if !msg.Status.At.IsZero() {
			m.now = msg.Status.At
		}

	case LogMsg:
		m.lastLog = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	st := m.status
	var b strings.Builder

	enabled := onStyle.Render("ENABLED")
	if st.Mode == control.ModeDisabled {
		enabled = offStyle.Render("DISABLED")
	}
	modeStyle, ok := modeStyles[st.Mode]
	if !ok {
		modeStyle = dimStyle
	}
	fmt.Fprintf(&b, "%s  %s  %s\n\n", titleStyle.Render("loudctl"), enabled, modeStyle.Render(st.Mode.String()))

	source := fmt.Sprintf("%6.1f dB", st.EstimateDB)
	heard := fmt.Sprintf("%6.1f dB", st.EstimateDB+st.VolumeDB)
	if st.Silent || !st.CaptureOK {
		source = fmt.Sprintf("%6s   ", "--") + " " + warnStyle.Render("SIL")
		heard = fmt.Sprintf("%6s", "--")
	}
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	row("Source", source)
	row("Volume", fmt.Sprintf("%6.1f dB", st.VolumeDB))
	row("Heard", heard)
	row("Target", fmt.Sprintf("%6.1f LUFS", st.TargetDB))
	b.WriteString("\n" + renderMeter(st.EstimateDB, st.TargetDB, st.Silent || !st.CaptureOK, meterWidth) + "\n\n")

	if st.Mode == control.ModePaused {
		left := max(st.PausedUntil.Sub(m.now), 0).Round(time.Second)
		b.WriteString(warnStyle.Render(fmt.Sprintf("MANUAL  resumes in %s", left)) + "\n")
	}
	if st.AtMax {
		b.WriteString(warnStyle.Render("AT MAX  output already at full volume") + "\n")
	}
	if st.Err != nil {
		b.WriteString(errStyle.Render(st.Err.Error()) + "\n")
	}
	if m.lastLog != "" {
		b.WriteString(dimStyle.Render(m.lastLog) + "\n")
	}

	dev := m.device
	if dev == "" {
		dev = "default monitor"
	}
	sink := m.sink
	if sink == "" {
		sink = "default output"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("capture: %s | output: %s", dev, sink)) + "\n\n")
	b.WriteString(helpStyle.Render("+/- target  e enable  q quit  |  loudctl "+version) + "\n")
	return b.String()
}

// renderMeter draws the source level on a -60..0 dB bar, coloured by how far
// above the target each cell is, with the target marked.
func renderMeter(estimate, target float64, silent bool, width int) string {
	span := -meterMinDB
	cell := func(db float64) int {
		i := int((db - meterMinDB) / span * float64(width))
		return max(0, min(width-1, i))
	}
	mark := cell(target)
	var b strings.Builder
	for i := range width {
		db := meterMinDB + (float64(i)+0.5)*span/float64(width)
		switch {
		case i == mark:
			b.WriteString(barMark.Render("|"))
		case silent || db > estimate:
			b.WriteString(barOff.Render("·"))
		case db <= target:
			b.WriteString(barLow.Render("█"))
		case db <= target+6:
			b.WriteString(barNear.Render("█"))
		default:
			b.WriteString(barHot.Render("█"))
		}
	}
	return b.String()
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func logToTUI(format string, args ...any) {
	tuiSend(LogMsg{Text: fmt.Sprintf(format, args...)})
}

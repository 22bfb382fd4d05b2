package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/initial"
	"github.com/san-kum/nbodysim/internal/logging"
)

var presetInfo = map[string]string{
	"sun-earth-moon": "three bodies, circular start",
	"sun-earth":      "two-body kepler orbit",
	"sun-jupiter":    "heavy outer planet",
	"earth-year":     "SEM, 1h steps, one year",
	"earth-month":    "SEM, 10min steps, one month",
	"jupiter-decade": "sun-jupiter, daily steps",
	"cluster":        "64 random bodies",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

type menuEntry struct {
	name string
	cfg  *config.Config
}

var (
	menuTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuValue  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Bold(true)
	menuIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

// Menu picks a preset, lets the user adjust the step parameters and then
// hands over to a live Model.
type Menu struct {
	state       int
	cursor      int
	entries     []menuEntry
	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string
	selected    *config.Config
	log         logging.Logger
	snapshot    func(c *Canvas, step int) (string, error)
	live        Model
	err         error
}

// NewMenu lists the run presets followed by the initial-state presets, the
// latter combined with base.
func NewMenu(base *config.Config, log logging.Logger, snapshot func(c *Canvas, step int) (string, error)) *Menu {
	m := &Menu{
		paramNames: []string{"dt", "steps", "dump_every", "softening", "workers"},
		log:        log,
		snapshot:   snapshot,
	}
	for _, name := range config.ListPresets() {
		m.entries = append(m.entries, menuEntry{name: name, cfg: config.GetPreset(name)})
	}
	for _, name := range initial.ListPresets() {
		cfg := *base
		cfg.Init = name
		m.entries = append(m.entries, menuEntry{name: name, cfg: &cfg})
	}
	return m
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case stateMenu:
			return m.menuKey(msg)
		case stateConfig:
			return m.configKey(msg)
		}
	}
	if m.state == stateSim {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	return m, nil
}

func (m Menu) menuKey(msg tea.KeyMsg) (Menu, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter", " ":
		cfg := *m.entries[m.cursor].cfg
		m.selected = &cfg
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m Menu) configKey(msg tea.KeyMsg) (Menu, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.setParam(m.paramNames[m.paramCursor], v)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e+") {
				m.editBuf += s
			}
		}
		return m, nil
	}

	name := m.paramNames[m.paramCursor]
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter":
		m.editing, m.editBuf = true, formatParam(m.param(name))
	case "left", "h":
		m.setParam(name, m.param(name)/2)
	case "right", "l":
		m.setParam(name, m.param(name)*2)
	case "s":
		return m.start()
	}
	return m, nil
}

func (m Menu) param(name string) float64 {
	c := m.selected
	switch name {
	case "dt":
		return c.Dt
	case "steps":
		return float64(c.Steps)
	case "dump_every":
		return float64(c.DumpEvery)
	case "softening":
		return c.Softening
	case "workers":
		return float64(c.Workers)
	}
	return 0
}

func (m *Menu) setParam(name string, v float64) {
	c := m.selected
	switch name {
	case "dt":
		c.Dt = v
	case "steps":
		c.Steps = int(v)
	case "dump_every":
		c.DumpEvery = max(int(v), 1)
	case "softening":
		c.Softening = v
	case "workers":
		c.Workers = max(int(v), 0)
	}
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (m Menu) start() (Menu, tea.Cmd) {
	if err := m.selected.Validate(); err != nil {
		m.err = err
		return m, nil
	}
	src, err := m.selected.Source()
	if err != nil {
		m.err = err
		return m, nil
	}

	live, err := NewModel(Options{
		Source:   src,
		Params:   m.selected.Params(),
		Logger:   m.log,
		Snapshot: m.snapshot,
	})
	if err != nil {
		m.err = err
		return m, nil
	}

	m.live = live
	m.state = stateSim
	return m, m.live.Init()
}

func (m Menu) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func (m Menu) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("NBODYSIM") + "\n    " + menuSub.Render("gravitational n-body simulation") + "\n    " + menuSub.Render("───────────────────────────────") + "\n\n")
	for i, e := range m.entries {
		desc := presetInfo[e.name]
		if i == m.cursor {
			fmt.Fprintf(&b, "    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-16s", e.name)), menuValue.Render(desc))
		} else {
			fmt.Fprintf(&b, "    %s  %s\n", menuIdle.Render(fmt.Sprintf("  %-16s", e.name)), menuIdle.Render(desc))
		}
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuIdle.Render(" navigate  ") + menuKey.Render("enter") + menuIdle.Render(" select  ") + menuKey.Render("q") + menuIdle.Render(" quit") + "\n")
	return b.String()
}

func (m Menu) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(m.entries[m.cursor].name)) + "\n    " + menuSub.Render("init: "+m.selected.Init) + "\n    " + menuSub.Render("───────────────────────────────") + "\n\n")
	for i, name := range m.paramNames {
		val := fmt.Sprintf("%12s", formatParam(m.param(name)))
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%12s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			fmt.Fprintf(&b, "    %s %s %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-12s", name)), menuValue.Render(val))
		} else {
			fmt.Fprintf(&b, "    %s %s\n", menuIdle.Render(fmt.Sprintf("  %-12s", name)), menuIdle.Render(val))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuIdle.Render(" select  ") + menuKey.Render("h/l") + menuIdle.Render(" halve/double  ") + menuKey.Render("enter") + menuIdle.Render(" edit  ") + menuKey.Render("s") + menuIdle.Render(" start  ") + menuKey.Render("esc") + menuIdle.Render(" back") + "\n")
	return b.String()
}

// RunMenu opens the preset picker full screen.
func RunMenu(base *config.Config, log logging.Logger, snapshot func(c *Canvas, step int) (string, error)) error {
	_, err := tea.NewProgram(NewMenu(base, log, snapshot), tea.WithAltScreen()).Run()
	return err
}

// Run opens a live session full screen and returns its final result, if the
// configured step count was reached.
func Run(opts Options) (*dynamo.Result, error) {
	m, err := NewModel(opts)
	if err != nil {
		return nil, err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	fm := final.(Model)
	return fm.Result(), fm.Err()
}

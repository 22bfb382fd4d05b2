package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/initial"
	"github.com/san-kum/nbodysim/internal/logging"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/physics"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	trailCapacity   = 240
	maxSpeed        = 1 << 12
	tickRate        = time.Second / 30
)

type TickMsg time.Time

// Options configures a live session.
type Options struct {
	Title  string
	Source initial.Source
	Params dynamo.Params
	Logger logging.Logger

	// Snapshot, if set, is called with the current canvas when S is pressed.
	Snapshot func(c *Canvas, step int) (string, error)
}

// history is shared between copies of the Model; the simulator sink appends
// to it.
type history struct {
	energy []float64
	dumps  int
}

func (h *history) Dump(step int, s *physics.System) error {
	h.dumps++
	return nil
}

func (h *history) push(e float64) {
	h.energy = append(h.energy, e)
	if len(h.energy) > historyCapacity {
		h.energy = h.energy[1:]
	}
}

// Model steps a simulator from the bubbletea update loop and draws the store
// on a braille canvas.
type Model struct {
	opts     Options
	sim      *dynamo.Simulator
	drift    *metrics.EnergyDrift
	hist     *history
	result   *dynamo.Result
	canvas   *Canvas
	camera   *Camera
	trails   [][]physics.Vec3
	running  bool
	speed    int
	theme    int
	styles   styles
	showHelp bool
	status   string
	err      error
}

func NewModel(opts Options) (Model, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NoOp{}
	}
	if opts.Title == "" && opts.Source != nil {
		opts.Title = opts.Source.String()
	}

	m := Model{
		opts:    opts,
		canvas:  NewCanvas(width, height),
		running: true,
		speed:   1,
		styles:  newStyles(Themes[0]),
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// reset reloads the initial store and restarts the simulator. The camera is
// kept unless this is the first load.
func (m *Model) reset() error {
	sys, err := m.opts.Source.Load()
	if err != nil {
		return err
	}

	sim, err := dynamo.New(m.opts.Params)
	if err != nil {
		return err
	}
	sim.SetLogger(m.opts.Logger)

	m.hist = &history{}
	m.drift = metrics.NewEnergyDrift(sim.Gravity())
	sim.AddMetric(m.drift)
	sim.AddSink(m.hist)

	if err := sim.Initialize(sys); err != nil {
		return err
	}
	if err := sim.Start(); err != nil {
		return err
	}

	m.sim = sim
	m.result = nil
	m.err = nil
	m.status = ""
	m.hist.push(m.drift.Current())
	if m.camera == nil {
		m.camera = FitCamera(sys)
	}
	m.trails = make([][]physics.Vec3, sys.Len())
	m.recordTrails()
	return nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.result == nil && m.err == nil {
				m.running = !m.running
			}
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
			m.running = true
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.ZoomIn()
		case "Z":
			m.camera.ZoomOut()
		case "c":
			m.camera = FitCamera(m.sim.System())
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = newStyles(Themes[m.theme])
		case "s":
			m.snapshot()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance runs up to speed steps, stopping at the configured step count.
func (m *Model) advance() {
	for i := 0; i < m.speed; i++ {
		if m.sim.Done() {
			res, err := m.sim.Finish()
			m.result, m.err = res, err
			m.running = false
			break
		}
		if err := m.sim.Step(); err != nil {
			m.err = err
			m.running = false
			break
		}
	}
	m.hist.push(m.drift.Current())
	m.recordTrails()
}

func (m *Model) recordTrails() {
	for i, p := range m.sim.System().Particles {
		t := append(m.trails[i], p.Pos)
		if len(t) > trailCapacity {
			t = t[1:]
		}
		m.trails[i] = t
	}
}

func (m *Model) snapshot() {
	if m.opts.Snapshot == nil {
		m.status = "snapshots disabled"
		return
	}
	m.draw()
	path, err := m.opts.Snapshot(m.canvas, m.sim.StepCount())
	if err != nil {
		m.status = "snapshot failed: " + err.Error()
		return
	}
	m.status = "saved " + path
}

func (m *Model) draw() {
	m.canvas.Clear()
	for _, trail := range m.trails {
		for _, pos := range trail {
			if x, y, ok := m.camera.Project(pos, m.canvas); ok {
				m.canvas.Set(x, y)
			}
		}
	}
	for _, p := range m.sim.System().Particles {
		if x, y, ok := m.camera.Project(p.Pos, m.canvas); ok {
			m.canvas.Dot(x, y, 1)
		}
	}
}

func (m Model) progress() float64 {
	p := m.sim.Params()
	if p.Steps == 0 {
		return 1
	}
	return float64(m.sim.StepCount()) / float64(p.Steps)
}

// Step returns the simulator's step count.
func (m Model) Step() int { return m.sim.StepCount() }

func (m Model) Running() bool { return m.running }

func (m Model) Speed() int { return m.speed }

// Result is set once the configured step count has been reached.
func (m Model) Result() *dynamo.Result { return m.result }

func (m Model) Err() error { return m.err }

func (m Model) View() string {
	m.draw()
	st := m.styles
	canvasView := st.canvas.Render(m.canvas.String())

	p := m.sim.Params()
	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.opts.Title)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(st.bad.Render("ERROR: "+m.err.Error()) + "\n\n")
	case m.result != nil:
		s.WriteString(st.good.Render("FINISHED") + "\n\n")
	case m.running:
		s.WriteString(st.good.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.warn.Render("PAUSED") + "\n\n")
	}

	if e := m.hist.energy; len(e) > 1 {
		chart := asciigraph.Plot(e, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Total energy (J)"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d", m.sim.StepCount()))
	row("Progress", ProgressBar(m.progress(), 20))
	row("Sim time", FormatSimTime(m.sim.Time()))
	row("dt", FormatSimTime(p.Dt))
	row("Speed", fmt.Sprintf("%d steps/frame", m.speed))
	row("Bodies", fmt.Sprintf("%d", m.sim.System().Len()))
	row("Dumps", fmt.Sprintf("%d", m.hist.dumps))
	drift := m.drift.Value()
	s.WriteString(st.label.Render("Drift") + st.drift(drift).Render(fmt.Sprintf("%.3e", drift)) + "\n")
	if m.status != "" {
		s.WriteString("\n" + st.value.Render(m.status) + "\n")
	}

	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit +/-:Speed\nX/Y:Rotate Z:Zoom C:Center T:Theme S:Save ?:Help"))
	statsView := st.panel.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
  Space   pause / resume
  R       restart from the initial state
  + / -   double / halve steps per frame
  x X y Y rotate the view
  z / Z   zoom in / out
  C       re-centre on the centre of mass
  T       cycle colour theme
  S       save the canvas as SVG
  Q       quit
`

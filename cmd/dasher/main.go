package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	plot "github.com/chriskim06/drawille-go"
	"github.com/joho/godotenv"

	"github.com/willwade/dashergo/internal/alphabet"
	"github.com/willwade/dashergo/internal/input"
	"github.com/willwade/dashergo/internal/model"
	"github.com/willwade/dashergo/internal/screen"
	"github.com/willwade/dashergo/internal/session"
)

type Config struct {
	// alphabet & model
	AlphabetPath string
	TrainingPath string
	WordListPath string
	SchemePath   string
	SchemeName   string
	Order        int
	DictWeight   float64
	ControlMode  bool

	// dynamics
	TargetBits float64
	Filter     string
	DemoSeed   int64

	// render
	FPS          int
	PlotFPS      int
	PlotPoints   int
	ViewSplit    int
	StatsEnabled bool
	StatsWindow  int
	AltScreen    bool

	// headless
	Headless bool
	Frames   int
}

var config = Config{
	Order:      model.DefaultOrder,
	DictWeight: 0.3,

	TargetBits: 0, // controller default
	Filter:     "pointer",
	DemoSeed:   1,

	FPS:          30,
	PlotFPS:      4,
	PlotPoints:   120,
	ViewSplit:    65,
	StatsEnabled: true,
	StatsWindow:  256,
	AltScreen:    true,

	Frames: 300,
}

var (
	accentColor = styles.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor = styles.AdaptiveColor{Light: "#555", Dark: "#555"}
	accentFg    = styles.NewStyle().Foreground(accentColor)
	borderFg    = styles.NewStyle().Foreground(borderColor)
	plotStyle   = styles.NewStyle().
			BorderStyle(styles.NormalBorder()).
			Foreground(borderColor).
			BorderForeground(borderColor)
)

func main() {
	log.SetOutput(os.Stderr)
	_ = godotenv.Load()
	if v := os.Getenv("DASHER_ALPHABET"); v != "" {
		config.AlphabetPath = v
	}
	if v := os.Getenv("DASHER_TRAINING"); v != "" {
		config.TrainingPath = v
	}
	if v := os.Getenv("DASHER_WORDLIST"); v != "" {
		config.WordListPath = v
	}

	flag.StringVar(&config.AlphabetPath, "alphabet", config.AlphabetPath, "Alphabet XML file (default: built-in English lowercase)")
	flag.StringVar(&config.TrainingPath, "training", config.TrainingPath, "Training text file fed to the language model at startup")
	flag.StringVar(&config.WordListPath, "wordlist", config.WordListPath, "Word list file for the dictionary component")
	flag.StringVar(&config.SchemePath, "colours", config.SchemePath, "Colour scheme XML file")
	flag.StringVar(&config.SchemeName, "scheme", config.SchemeName, "Scheme name to pick from -colours (default: first)")
	flag.IntVar(&config.Order, "order", config.Order, "PPM language model order [0,5]")
	flag.Float64Var(&config.DictWeight, "dict-weight", config.DictWeight, "Dictionary blending weight [0,1]")
	flag.BoolVar(&config.ControlMode, "control", config.ControlMode, "Attach control children (backspace/accept) at word boundaries")
	flag.Float64Var(&config.TargetBits, "bits", config.TargetBits, "Target entry rate in bits/second (0 = controller default)")
	flag.StringVar(&config.Filter, "filter", config.Filter, "Input filter: pointer, one-button, two-button, demo")
	flag.Int64Var(&config.DemoSeed, "demo-seed", config.DemoSeed, "Random seed for the demo filter")
	flag.IntVar(&config.FPS, "fps", config.FPS, "Core frame rate (frames per second)")
	flag.IntVar(&config.PlotFPS, "plot-fps", config.PlotFPS, "Entry-rate plot refresh rate (frames per second)")
	flag.IntVar(&config.PlotPoints, "plot-points", config.PlotPoints, "Entry-rate plot history length")
	flag.IntVar(&config.ViewSplit, "view-split", config.ViewSplit, "Split the view at this % of the total screen width [20,80]")
	flag.BoolVar(&config.StatsEnabled, "stats", config.StatsEnabled, "Show runtime performance stats")
	flag.IntVar(&config.StatsWindow, "stats-window", config.StatsWindow, "Number of recent samples kept per metric")
	flag.BoolVar(&config.AltScreen, "alt-screen", config.AltScreen, "Use the terminal alternate screen buffer")
	flag.BoolVar(&config.Headless, "headless", config.Headless, "Run without a terminal UI: drive -frames frames and print the output")
	flag.IntVar(&config.Frames, "frames", config.Frames, "Number of frames to run in -headless mode")
	flag.Parse()

	if err := validateAndNormalizeConfig(); err != nil {
		log.Fatal(err)
	}

	a, err := loadAlphabet()
	if err != nil {
		log.Fatal(err)
	}
	scheme, err := loadScheme()
	if err != nil {
		log.Fatal(err)
	}
	dict, err := loadDictionary(a)
	if err != nil {
		log.Fatal(err)
	}

	sess := session.New(session.Settings{
		Alphabet:    a,
		Order:       config.Order,
		Dictionary:  dict,
		DictWeight:  config.DictWeight,
		ControlMode: config.ControlMode,
		TargetBits:  config.TargetBits,
		Scheme:      scheme,
		Logger:      log.Default(),
	})

	if config.TrainingPath != "" {
		f, err := os.Open(config.TrainingPath)
		if err != nil {
			log.Fatal(err)
		}
		err = sess.Train(f)
		_ = f.Close()
		if err != nil {
			log.Fatal(err)
		}
	}
	// Piped stdin is extra training text; the TUI reads keys from the
	// terminal either way.
	if !term.IsTerminal(os.Stdin.Fd()) {
		if err := sess.Train(os.Stdin); err != nil {
			log.Fatal(err)
		}
	}

	filter, err := buildFilter(config.Filter, config.DemoSeed)
	if err != nil {
		log.Fatal(err)
	}
	sess.SetFilter(filter)

	if config.Headless {
		out, err := runHeadless(sess, config.Frames, 1000/int64(config.FPS))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(out)
		log.Printf("[HEADLESS] frames=%d writes=%d nats=%.2f", config.Frames, sess.Writes(), sess.TotalNats())
		return
	}

	m := newUI(sess)
	opts := []tui.ProgramOption{tui.WithInputTTY(), tui.WithMouseAllMotion()}
	if config.AltScreen {
		opts = append(opts, tui.WithAltScreen())
	}
	if _, err := tui.NewProgram(m, opts...).Run(); err != nil {
		log.Fatal(err)
	}
}

func validateAndNormalizeConfig() error {
	if config.Order < 0 || config.Order > 5 {
		return fmt.Errorf("-order must be in [0,5]")
	}
	if config.DictWeight < 0 || config.DictWeight > 1 {
		return fmt.Errorf("-dict-weight must be in [0,1]")
	}
	if config.TargetBits < 0 {
		return fmt.Errorf("-bits must be >= 0")
	}
	if config.FPS < 1 {
		return fmt.Errorf("-fps must be >= 1")
	}
	if config.FPS > 120 {
		config.FPS = 120
	}
	if config.PlotFPS < 1 {
		return fmt.Errorf("-plot-fps must be >= 1")
	}
	if config.PlotPoints < 2 {
		return fmt.Errorf("-plot-points must be >= 2")
	}
	if config.WordListPath == "" && config.DictWeight > 0 {
		// No word list means no dictionary; weight is ignored.
		config.DictWeight = 0
	}
	config.ViewSplit = max(20, config.ViewSplit)
	config.ViewSplit = min(80, config.ViewSplit)
	if config.StatsWindow < 16 {
		config.StatsWindow = 16
	}
	if config.Headless && config.Frames < 1 {
		return fmt.Errorf("-frames must be >= 1")
	}
	return nil
}

func loadAlphabet() (*alphabet.Alphabet, error) {
	if config.AlphabetPath == "" {
		return alphabet.Default(), nil
	}
	f, err := os.Open(config.AlphabetPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return alphabet.LoadXML(f)
}

func loadScheme() (*screen.Scheme, error) {
	if config.SchemePath == "" {
		return screen.DefaultScheme(), nil
	}
	f, err := os.Open(config.SchemePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	schemes, err := screen.LoadSchemes(f)
	if err != nil {
		return nil, err
	}
	if len(schemes) == 0 {
		return nil, fmt.Errorf("%s: no schemes", config.SchemePath)
	}
	if config.SchemeName == "" {
		return &schemes[0], nil
	}
	for i := range schemes {
		if schemes[i].Name == config.SchemeName {
			return &schemes[i], nil
		}
	}
	return nil, fmt.Errorf("%s: no scheme named %q", config.SchemePath, config.SchemeName)
}

func loadDictionary(a *alphabet.Alphabet) (*model.Dictionary, error) {
	if config.WordListPath == "" {
		return nil, nil
	}
	f, err := os.Open(config.WordListPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	d := model.NewDictionary()
	if err := d.LoadWordList(f, a); err != nil {
		return nil, err
	}
	return d, nil
}

func buildFilter(name string, seed int64) (input.Filter, error) {
	switch name {
	case "pointer":
		return input.NewPointer(), nil
	case "one-button":
		return input.NewOneButton(), nil
	case "two-button":
		return input.NewTwoButton(), nil
	case "demo":
		return input.NewDemo(seed), nil
	}
	return nil, fmt.Errorf("unknown -filter %q (want pointer, one-button, two-button, or demo)", name)
}

type ui struct {
	width, height  int
	leftPaneWidth  int
	rightPaneWidth int

	sess  *session.Session
	cells *screen.CellScreen
	start time.Time
	err   error

	plot     *plot.Canvas
	natsHist []float64
	lastNats float64
	lastPlot time.Time

	metrics *frameMetrics
	help    help.Model

	// Terminals report no key releases, so hold-style keys toggle.
	held map[input.VirtualKey]bool
}

func newUI(sess *session.Session) *ui {
	const (
		defaultWidth  = 80
		defaultHeight = 24
	)

	p := plot.NewCanvas(defaultWidth/3, defaultHeight/2)
	p.NumDataPoints = config.PlotPoints
	p.ShowAxis = false
	p.LineColors = make([]plot.Color, 1)

	m := &ui{
		sess:     sess,
		cells:    screen.NewCellScreen(defaultWidth/2, defaultHeight-4),
		start:    time.Now(),
		plot:     &p,
		natsHist: make([]float64, config.PlotPoints),
		metrics:  newFrameMetrics(config.StatsWindow),
		help:     help.New(),
		held:     make(map[input.VirtualKey]bool),
	}
	m.metrics.setEnabled(config.StatsEnabled)
	m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(defaultWidth, config.ViewSplit)
	sess.AttachRenderer(m.cells)
	if err := sess.Start(); err != nil {
		m.err = err
	}
	return m
}

func (m *ui) nowMS(t time.Time) int64 {
	return int64(t.Sub(m.start) / time.Millisecond)
}

type FrameTickMsg time.Time

func doFrameTick() tui.Cmd {
	return tui.Every(time.Second/time.Duration(config.FPS), func(t time.Time) tui.Msg {
		return FrameTickMsg(t)
	})
}

type PlotTickMsg time.Time

func doPlotTick() tui.Cmd {
	return tui.Every(time.Second/time.Duration(config.PlotFPS), func(t time.Time) tui.Msg {
		return PlotTickMsg(t)
	})
}

func (m *ui) Init() tui.Cmd {
	return tui.Batch(doFrameTick(), doPlotTick())
}

func (m *ui) Update(msg tui.Msg) (tui.Model, tui.Cmd) {
	switch msg := msg.(type) {
	case FrameTickMsg:
		start := time.Now()
		m.sess.Frame(m.nowMS(time.Time(msg)))
		m.metrics.observeFrame(time.Since(start))
		return m, doFrameTick()

	case PlotTickMsg:
		m.samplePlot(time.Time(msg))
		return m, doPlotTick()

	case tui.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(m.width, config.ViewSplit)
		statsLines := 0
		if config.StatsEnabled {
			statsLines = 5
		}
		// status + output + help lines below the canvases
		bottomLines := statsLines + 3
		available := max(1, m.height-bottomLines)

		m.cells.Resize(max(1, m.leftPaneWidth), available)
		m.resizePlot(max(1, m.rightPaneWidth-2), max(1, available-2))
		return m, nil

	case tui.MouseMsg:
		m.sess.MousePosition(msg.X, msg.Y)
		if msg.Action == tui.MouseActionPress && msg.Button == tui.MouseButtonLeft {
			t := m.nowMS(time.Now())
			m.sess.KeyDown(input.KeyPrimary, t)
			m.sess.KeyUp(input.KeyPrimary, t)
		}
		return m, nil

	case tui.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *ui) updateKeys(msg tui.KeyMsg) (tui.Model, tui.Cmd) {
	t := m.nowMS(time.Now())
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tui.Quit
	case key.Matches(msg, keys.Pause):
		m.sess.KeyDown(input.KeyStartStop, t)
		m.sess.KeyUp(input.KeyStartStop, t)
	case key.Matches(msg, keys.Backspace):
		m.sess.KeyDown(input.KeyBackspace, t)
		m.sess.KeyUp(input.KeyBackspace, t)
	case key.Matches(msg, keys.Turbo):
		m.toggleHold(input.KeyTab, t)
	case key.Matches(msg, keys.Button1):
		m.toggleHold(input.KeyButton1, t)
	case key.Matches(msg, keys.Button2):
		m.toggleHold(input.KeyButton2, t)
	case key.Matches(msg, keys.Slower):
		fr := m.sess.FrameRate()
		fr.SetTargetBits(fr.TargetBits() - 0.25)
	case key.Matches(msg, keys.Faster):
		fr := m.sess.FrameRate()
		fr.SetTargetBits(fr.TargetBits() + 0.25)
	case key.Matches(msg, keys.Reset):
		m.sess.Reset()
	}
	return m, nil
}

func (m *ui) toggleHold(k input.VirtualKey, t int64) {
	if m.held[k] {
		m.sess.KeyUp(k, t)
	} else {
		m.sess.KeyDown(k, t)
	}
	m.held[k] = !m.held[k]
}

// samplePlot appends the entry rate (nats/second since the last sample)
// to the rolling history and redraws the canvas.
func (m *ui) samplePlot(now time.Time) {
	nats := m.sess.TotalNats()
	rate := 0.0
	if !m.lastPlot.IsZero() {
		if dt := now.Sub(m.lastPlot).Seconds(); dt > 0 {
			rate = (nats - m.lastNats) / dt
		}
	}
	if rate < 0 {
		rate = 0
	}
	m.lastNats = nats
	m.lastPlot = now

	copy(m.natsHist, m.natsHist[1:])
	m.natsHist[len(m.natsHist)-1] = rate

	if styles.DefaultRenderer().HasDarkBackground() {
		m.plot.LineColors[0] = plot.Red
	} else {
		m.plot.LineColors[0] = plot.Black
	}
	m.plot.Fill([][]float64{m.natsHist})
}

func (m *ui) resizePlot(w, h int) {
	p := plot.NewCanvas(w, h)
	p.NumDataPoints = m.plot.NumDataPoints
	p.ShowAxis = m.plot.ShowAxis
	p.LineColors = m.plot.LineColors
	m.plot = &p
}

func (m *ui) View() string {
	left := styles.NewStyle().Width(m.leftPaneWidth).Render(m.cells.Frame())
	right := plotStyle.Render(m.plot.String())
	view := styles.JoinHorizontal(styles.Top, left, right)

	status := fmt.Sprintf("session %s  filter %s  %.2f bits/s  %.2f nats  %d writes",
		m.sess.ID()[:8], config.Filter,
		m.sess.FrameRate().TargetBits(), m.sess.TotalNats(), m.sess.Writes())
	if m.sess.Paused() {
		status += "  [PAUSED]"
	}
	out := accentFg.Render("> " + tail(m.sess.OutputText(), max(1, m.width-4)))

	lines := []string{view, borderFg.Render(status), out}

	if m.err != nil {
		errStyle := styles.NewStyle().Foreground(styles.AdaptiveColor{Light: "1", Dark: "9"})
		lines = append(lines, errStyle.Render("ERROR: "+m.err.Error()))
	} else if config.StatsEnabled {
		snap := m.metrics.snapshot()
		lines = append(lines,
			borderFg.Render(fmt.Sprintf("frames: %d  frame time avg/max: %s/%s  core fps: %.1f",
				snap.frames,
				formatMetricDuration(snap.frame.avg),
				formatMetricDuration(snap.frame.max),
				1/max(1e-9, m.sess.FrameRate().AvgDT()))))
	}
	lines = append(lines, m.help.View(keys))
	return styles.JoinVertical(styles.Left, lines...)
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return "…" + string(r[len(r)-n+1:])
}

func computePaneWidths(totalWidth int, splitPercent int) (left, right int) {
	if totalWidth <= 1 {
		return 1, 1
	}
	left = totalWidth * splitPercent / 100
	if left < 1 {
		left = 1
	}
	if left > totalWidth-1 {
		left = totalWidth - 1
	}
	right = totalWidth - left

	const minPane = 16
	if totalWidth >= minPane*2 {
		if left < minPane {
			left = minPane
			right = totalWidth - left
		}
		if right < minPane {
			right = minPane
			left = totalWidth - right
		}
	}
	return left, right
}

func formatMetricDuration(d time.Duration) string {
	if d <= 0 {
		return "0.000ms"
	}
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}

type keyMap struct {
	Pause     key.Binding
	Backspace key.Binding
	Turbo     key.Binding
	Button1   key.Binding
	Button2   key.Binding
	Slower    key.Binding
	Faster    key.Binding
	Reset     key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Backspace, k.Slower, k.Faster, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Backspace, k.Reset},
		{k.Turbo, k.Button1, k.Button2},
		{k.Slower, k.Faster, k.Quit},
	}
}

var keys = keyMap{
	Pause: key.NewBinding(
		key.WithKeys(" ", "p"),
		key.WithHelp("space/p", "start/stop"),
	),
	Backspace: key.NewBinding(
		key.WithKeys("backspace"),
		key.WithHelp("bksp", "undo symbol"),
	),
	Turbo: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "turbo"),
	),
	Button1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "button 1"),
	),
	Button2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "button 2"),
	),
	Slower: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "slower"),
	),
	Faster: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "faster"),
	),
	Reset: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "reset"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max[T ~int | ~float64](a, b T) T {
	if a > b {
		return a
	}
	return b
}

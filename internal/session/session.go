// Package session ties the coordinate frame, tree, language model,
// filters, and renderer together behind the host-facing API. One session
// owns one tree; a single Frame call per animation tick advances
// everything in a fixed order.
package session

import (
	"errors"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/willwade/dashergo/internal/alphabet"
	"github.com/willwade/dashergo/internal/dynamics"
	"github.com/willwade/dashergo/internal/input"
	"github.com/willwade/dashergo/internal/model"
	"github.com/willwade/dashergo/internal/screen"
	"github.com/willwade/dashergo/internal/tree"
)

// ErrNoAlphabet is returned by Start when no usable alphabet is
// configured; the session never runs with an inconsistent tree.
var ErrNoAlphabet = errors.New("session: no alphabet configured")

// Event is a non-fatal condition reported to the host.
type Event int

const (
	// EventStepRefused fires when a scheduled step breaches the
	// coordinate overflow guards and is dropped.
	EventStepRefused Event = iota
	// EventPopRefused fires when reversing out of the root would
	// overflow and the parent is not adopted.
	EventPopRefused
)

// Settings configures a session. The zero value of each field selects a
// sensible default; only Alphabet is mandatory.
type Settings struct {
	Alphabet *alphabet.Alphabet

	// Order is the PPM order; zero selects model.DefaultOrder.
	Order int

	// Dictionary, when set, is blended into the model with DictWeight.
	Dictionary *model.Dictionary
	DictWeight float64

	// ControlMode attaches control children at word boundaries.
	ControlMode bool

	// TargetBits is the frame-rate controller's bits-per-second aim;
	// zero selects the default.
	TargetBits float64

	// Retention bounds the old-root chain; zero selects
	// tree.DefaultRetention.
	Retention int

	// Scheme is the render palette; nil selects the built-in scheme.
	Scheme *screen.Scheme

	Logger  *log.Logger
	OnEvent func(Event)
}

// xLimit is the span above which a scheduled target is far enough from
// the crosshair to jump to in one step.
const xLimit = dynamics.MaxY / 2

// Session is the single-threaded cooperative core: every mutation
// happens inside Frame or one of the host API calls, all on the host's
// tick thread.
type Session struct {
	id  string
	cfg Settings

	alpha *alphabet.Alphabet
	lm    *model.Model
	exp   *tree.Expander

	root     *tree.Node
	cur      dynamics.Step
	oldRoots *tree.OldRoots

	sched *dynamics.Scheduler
	fps   *dynamics.FrameRate

	tape    *Tape
	trained []alphabet.Symbol
	conv    *alphabet.ConversionTable
	writes  int

	filter   input.Filter
	renderer screen.Screen
	device   screen.Input
	host     hostDevice
	scheme   *screen.Scheme

	running    bool
	lastTickMS int64
}

// New builds a session from settings. Start must be called before the
// first Frame.
func New(cfg Settings) *Session {
	if cfg.Order == 0 {
		cfg.Order = model.DefaultOrder
	}
	if cfg.Retention <= 0 {
		cfg.Retention = tree.DefaultRetention
	}
	scheme := cfg.Scheme
	if scheme == nil {
		scheme = screen.DefaultScheme()
	}
	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		alpha:  cfg.Alphabet,
		sched:  dynamics.NewScheduler(),
		fps:    dynamics.NewFrameRate(cfg.TargetBits),
		tape:   NewTape(),
		scheme: scheme,
	}
	if s.alpha != nil {
		s.rebuild()
	}
	return s
}

// ID is the session's identifier, used in log prefixes.
func (s *Session) ID() string { return s.id }

// AttachRenderer sets the render target. Frame returns false without
// one.
func (s *Session) AttachRenderer(r screen.Screen) { s.renderer = r }

// AttachInput sets the polling device. Hosts that push events instead
// may leave it unset and call MousePosition/KeyDown/KeyUp.
func (s *Session) AttachInput(in screen.Input) { s.device = in }

// SetFilter installs the input filter driven each frame.
func (s *Session) SetFilter(f input.Filter) { s.filter = f }

// Filter returns the installed filter.
func (s *Session) Filter() input.Filter { return s.filter }

// Start validates the configuration and begins accepting frames.
func (s *Session) Start() error {
	if s.alpha == nil || s.alpha.Size() <= 1 {
		return ErrNoAlphabet
	}
	if s.running {
		return nil
	}
	s.running = true
	s.logf("started alphabet=%q order=%d", s.alpha.Name, s.lm.Order())
	return nil
}

// Stop drains the step queue, pauses the filter, and stops accepting
// frames.
func (s *Session) Stop() {
	s.sched.Clear()
	if s.filter != nil {
		s.filter.Pause()
	}
	s.running = false
}

// Running reports whether frames advance state.
func (s *Session) Running() bool { return s.running }

// Pause drains the step queue and pauses the filter; frames keep
// rendering but nothing moves until Resume.
func (s *Session) Pause() {
	s.sched.Clear()
	if s.filter != nil {
		s.filter.Pause()
	}
}

// Resume unpauses the filter, restarting its slow-start ramp at tMS.
func (s *Session) Resume(tMS int64) {
	if s.filter != nil {
		s.filter.Resume(tMS)
	}
}

// Paused reports the filter's pause flag; true with no filter installed.
func (s *Session) Paused() bool {
	if s.filter == nil {
		return true
	}
	return s.filter.Paused()
}

// Reset returns the session to its initial state: empty tape, fresh
// model retrained on any training text, fresh tree.
func (s *Session) Reset() {
	s.tape.Reset()
	s.writes = 0
	s.sched = dynamics.NewScheduler()
	s.rebuild()
	if s.filter != nil {
		s.filter.Reset()
	}
}

// KeyDown forwards a virtual key press to the filter and the internal
// device.
func (s *Session) KeyDown(k input.VirtualKey, tMS int64) {
	s.host.press(k, true)
	if s.filter != nil {
		s.filter.KeyDown(k, tMS, s)
	}
}

// KeyUp forwards a virtual key release.
func (s *Session) KeyUp(k input.VirtualKey, tMS int64) {
	s.host.press(k, false)
	if s.filter != nil {
		s.filter.KeyUp(k, tMS, s)
	}
}

// MousePosition records a pushed pointer position for hosts without a
// polling device.
func (s *Session) MousePosition(x, y int) {
	s.host.x, s.host.y = x, y
	s.host.ok = true
}

// OutputText is the committed text.
func (s *Session) OutputText() string { return s.tape.String() }

// Offset is the tape length in runes.
func (s *Session) Offset() int { return s.tape.Offset() }

// Writes is the number of symbols committed this session.
func (s *Session) Writes() int { return s.writes }

// TotalNats is the information written so far, per the scheduler's
// accounting.
func (s *Session) TotalNats() float64 { return s.sched.TotalNats() }

// RootInterval exposes the root's absolute interval, for status
// displays.
func (s *Session) RootInterval() (int64, int64) { return s.cur.Min, s.cur.Max }

// FrameRate exposes the frame-rate controller for host speed controls.
func (s *Session) FrameRate() *dynamics.FrameRate { return s.fps }

// Backspace removes the most recent committed symbol: the tape shrinks
// by one entry, the model is rebuilt from the shorter tape, and the root
// chain walks back one node when the parent is still retained.
func (s *Session) Backspace() {
	if _, ok := s.tape.Pop(); !ok {
		return
	}
	parent := s.root.Parent
	if parent != nil && s.oldRoots.Newest() == parent {
		if p, ok := dynamics.ParentInterval(s.cur, s.root.Lower, s.root.Upper); ok {
			s.oldRoots.PopNewest()
			s.sched.Clear()
			s.rebuildModel()
			// Retraining changed the distributions; the parent's
			// children are stale.
			parent.Collapse()
			s.root = parent
			s.cur = p
			return
		}
	}
	s.rebuild()
}

// EditOutput replaces the committed text with text from the host. The
// tape, the model context, and the tree are rebuilt from scratch.
func (s *Session) EditOutput(text string) {
	s.tape.Reset()
	for _, sym := range s.alpha.Symbols(text) {
		s.tape.Append(sym, s.alpha.Char(sym).Text)
	}
	s.rebuild()
}

// Train reads a training file: free text lines feed the language model
// (comment lines starting with '#' are skipped, and each line ends in a
// space), conversion-alphabet rule lines install the conversion table.
// Trained text is kept so model rebuilds after backspace or edit
// preserve it.
func (s *Session) Train(r io.Reader) error {
	tr, err := alphabet.ReadTraining(r, s.alpha)
	if err != nil {
		return err
	}
	if tr.Rules != nil && tr.Rules.Len() > 0 {
		s.conv = tr.Rules
	}
	if len(tr.Text) > 0 {
		s.trained = append(s.trained, tr.Text...)
		s.lm.Train(tr.Text)
		if s.root != nil {
			s.root.Collapse()
		}
	}
	return nil
}

// buildModel constructs a model from the settings.
func (s *Session) buildModel() *model.Model {
	opts := []model.Option{model.WithOrder(s.cfg.Order)}
	if s.cfg.Dictionary != nil {
		opts = append(opts, model.WithDictionary(s.cfg.Dictionary, s.cfg.DictWeight))
	}
	if fixed := s.fixedProbs(); fixed != nil {
		opts = append(opts, model.WithFixedProbs(fixed))
	}
	return model.New(s.alpha.Size(), opts...)
}

// fixedProbs collects per-symbol probability overrides from the
// alphabet, nil when none are set.
func (s *Session) fixedProbs() []float64 {
	var fixed []float64
	for sym := alphabet.Symbol(1); int(sym) < s.alpha.Size(); sym++ {
		if p := s.alpha.Char(sym).FixedProb; p > 0 {
			if fixed == nil {
				fixed = make([]float64, s.alpha.Size())
			}
			fixed[sym] = p
		}
	}
	return fixed
}

// rebuildModel replaces the model, retraining it from the training text
// and the current tape so its state matches what observation would have
// produced.
func (s *Session) rebuildModel() {
	s.lm = s.buildModel()
	if len(s.trained) > 0 {
		s.lm.Train(s.trained)
	}
	if syms := s.tape.Symbols(); len(syms) > 0 {
		s.lm.Train(syms)
	}
	if s.exp == nil {
		s.exp = tree.NewExpander(s.lm, s.alpha)
		s.exp.ControlMode = s.cfg.ControlMode
	} else {
		s.exp.LM = s.lm
	}
}

// rebuild replaces the model and the whole tree, restoring the viewport
// to the full root interval.
func (s *Session) rebuild() {
	s.rebuildModel()
	s.root = tree.NewRoot()
	s.root.Offset = s.tape.Offset()
	s.cur = dynamics.Step{Min: 0, Max: dynamics.MaxY}
	s.oldRoots = tree.NewOldRoots(s.cfg.Retention)
	s.oldRoots.RequireConverted = s.alpha.Conversion != alphabet.ConversionNone
	s.sched.Clear()
}

func (s *Session) notify(e Event) {
	if s.cfg.OnEvent != nil {
		s.cfg.OnEvent(e)
	}
}

func (s *Session) logf(format string, args ...any) {
	if s.cfg.Logger == nil {
		return
	}
	s.cfg.Logger.Printf("[SESSION %s] "+format, append([]any{s.id[:8]}, args...)...)
}

// hostDevice adapts pushed mouse and key events to the polling input
// contract for hosts without a device of their own.
type hostDevice struct {
	x, y    int
	ok      bool
	buttons [6]bool
}

func (h *hostDevice) PollCoordinates() (int, int, bool) { return h.x, h.y, h.ok }

func (h *hostDevice) IsButtonPressed(id int) bool {
	if id < 0 || id >= len(h.buttons) {
		return false
	}
	return h.buttons[id]
}

func (h *hostDevice) press(k input.VirtualKey, down bool) {
	switch k {
	case input.KeyPrimary:
		h.buttons[0] = down
	case input.KeyButton1:
		h.buttons[1] = down
	case input.KeyButton2:
		h.buttons[2] = down
	case input.KeyButton3:
		h.buttons[3] = down
	case input.KeyButton4:
		h.buttons[4] = down
	case input.KeyButton5:
		h.buttons[5] = down
	}
}

// inputDevice is the device handed to the filter each frame.
func (s *Session) inputDevice() screen.Input {
	if s.device != nil {
		return s.device
	}
	return &s.host
}

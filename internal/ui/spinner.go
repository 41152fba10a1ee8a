package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// SpinnerState tracks where a spinner is in its lifecycle.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerInProgress
	SpinnerSuccess
	SpinnerFailed
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Spinner renders an animated inline status indicator, used while a
// one-off probe (like the init connection test) is in flight.
type Spinner struct {
	mu           sync.Mutex
	label        string
	state        SpinnerState
	frame        int
	startTime    time.Time
	stopChan     chan struct{}
	doneChan     chan struct{}
	output       func(string)
	running      bool
	lastRendered string
}

// NewSpinner creates a spinner with the given label. Output defaults to
// fmt.Print; use SetOutput to capture it in tests.
func NewSpinner(label string) *Spinner {
	return &Spinner{
		label:  label,
		state:  SpinnerPending,
		output: func(s string) { fmt.Print(s) },
	}
}

// SetOutput redirects the spinner's rendering.
func (s *Spinner) SetOutput(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = fn
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.state = SpinnerInProgress
	s.startTime = time.Now()
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.mu.Unlock()

	s.render()

	go s.animate()
}

// Stop halts the animation without changing state.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	<-s.doneChan
}

// Success stops the spinner and renders a ✓ line.
func (s *Spinner) Success() {
	s.Stop()
	s.mu.Lock()
	s.state = SpinnerSuccess
	s.mu.Unlock()
	s.renderFinal()
}

// Fail stops the spinner and renders a ✗ line.
func (s *Spinner) Fail() {
	s.Stop()
	s.mu.Lock()
	s.state = SpinnerFailed
	s.mu.Unlock()
	s.renderFinal()
}

// State returns the current lifecycle state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	defer close(s.doneChan)

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.mu.Unlock()
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := fmt.Sprintf("\r%s %s...",
		WarningStyle.Render(spinnerFrames[s.frame]), s.label)

	s.clearLocked()
	s.output(line)
	s.lastRendered = line
}

func (s *Spinner) renderFinal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol := SuccessStyle.Render(SymbolSuccess)
	if s.state == SpinnerFailed {
		symbol = ErrorStyle.Render(SymbolFail)
	}

	elapsed := time.Since(s.startTime).Seconds()
	timing := MutedStyle.Render(fmt.Sprintf("%.1fs", elapsed))

	s.clearLocked()
	s.output(fmt.Sprintf("%s %s %s\n", symbol, s.label, timing))
}

// clearLocked wipes the previous in-place render. Caller holds mu.
func (s *Spinner) clearLocked() {
	if s.lastRendered == "" {
		return
	}
	s.output("\r" + strings.Repeat(" ", len([]rune(s.lastRendered))) + "\r")
	s.lastRendered = ""
}

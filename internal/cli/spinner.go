package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line status on w while a long stage runs.
// It goes quiet when ctx is cancelled; Stop must still be called.
type Spinner struct {
	w    io.Writer
	ctx  context.Context
	stop context.CancelFunc
	once sync.Once
	done chan struct{}

	mu    sync.Mutex
	msg   string
	width int // widest line drawn so far, for clearing
}

func newSpinner(ctx context.Context, w io.Writer, msg string) *Spinner {
	ctx, stop := context.WithCancel(ctx)
	return &Spinner{w: w, ctx: ctx, stop: stop, msg: msg, done: make(chan struct{})}
}

// Start begins drawing frames in the background.
func (s *Spinner) Start() {
	go s.loop()
}

func (s *Spinner) loop() {
	defer close(s.done)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for n := 0; ; n++ {
		select {
		case <-s.ctx.Done():
			return
		case <-tick.C:
			s.draw(spinnerFrames[n%len(spinnerFrames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.msg)
	s.width = max(s.width, len(s.msg)+2)
	fmt.Fprint(s.w, "\r"+line)
}

// SetMessage replaces the text shown from the next frame on.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Stop ends the animation and erases the status line. It is safe to call
// more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.stop()
		<-s.done
		s.mu.Lock()
		if s.width > 0 {
			fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.width)+"\r")
		}
		s.mu.Unlock()
	})
}

// Fail stops the spinner and prints msg as an error line.
func (s *Spinner) Fail(msg string) {
	s.Stop()
	printError("%s", msg)
}

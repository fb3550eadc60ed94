// Package status keeps the user-facing status line and touch indicator.
package status

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/tphakala/handsoff-go/internal/training"
)

// Status messages of the guided flow
const (
	MsgStarting        = "Starting application..."
	MsgCameraReady     = "Camera set up successfully."
	MsgDetectionStart  = "Starting detection..."
	MsgStep1Prompt     = "Start step 1: not touching"
	MsgStep2Prompt     = "Start step 2: touching"
	MsgRunModelPrompt  = "Run model"
	MsgStepFailedRetry = "Training step %d stopped: %v. Start the step again."
)

// subscriberBuffer is the channel capacity of a subscriber and the length its
// queue may reach before progress updates are evicted
const subscriberBuffer = 16

// Update is a snapshot of the board published to subscribers
type Update struct {
	Message  string
	Touched  bool
	Progress bool // Message is a per-sample training progress line
	Time     time.Time
}

// Option configures a Board
type Option func(*Board)

// WithProgressBar renders a console progress bar per training phase to w
func WithProgressBar(w io.Writer) Option {
	return func(b *Board) {
		b.barOut = w
	}
}

// Board holds the current status message and touch indicator. It implements
// training.Observer and detector.Indicator and is safe for concurrent use.
type Board struct {
	mu      sync.Mutex
	message string
	touched bool
	subs    map[int]*subscriber
	nextSub int
	dropped uint64

	barOut io.Writer
	bar    *progressbar.ProgressBar
}

// NewBoard returns an empty board
func NewBoard(opts ...Option) *Board {
	b := &Board{subs: make(map[int]*subscriber)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Set replaces the status message
func (b *Board) Set(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.message = message
	b.publishLocked(false)
}

// Setf formats and sets the status message
func (b *Board) Setf(format string, args ...any) {
	b.Set(fmt.Sprintf(format, args...))
}

// Message returns the current status message
func (b *Board) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.message
}

// Touched returns the current indicator state
func (b *Board) Touched() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.touched
}

// SetTouched updates the touch indicator. Subscribers are told only about changes.
func (b *Board) SetTouched(touched bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.touched == touched {
		return
	}
	b.touched = touched
	b.publishLocked(false)
}

// TrainingProgress implements training.Observer
func (b *Board) TrainingProgress(p training.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.message = progressMessage(p)
	b.publishLocked(true)

	if b.barOut == nil {
		return
	}
	if b.bar == nil || p.Sample == 1 {
		b.bar = progressbar.NewOptions(p.Total,
			progressbar.OptionSetWriter(b.barOut),
			progressbar.OptionSetDescription(stepName(p.Phase)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("samples"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
		)
	}
	_ = b.bar.Set(p.Sample)
}

// PhaseChanged implements training.Observer
func (b *Board) PhaseChanged(from, to training.Phase) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
		b.bar = nil
	}

	switch to {
	case training.PhaseCollectPositive:
		b.message = fmt.Sprintf("Step %d complete. %s", from.Step(), MsgStep2Prompt)
	case training.PhaseReady:
		b.message = fmt.Sprintf("Step %d complete. %s", from.Step(), MsgRunModelPrompt)
	}
	b.publishLocked(false)
}

// Subscribe returns a channel of updates and a function that ends the subscription.
// A subscriber that falls behind loses its oldest queued progress lines, never a
// message change or an indicator change. Updates queued when the subscription ends
// are delivered as far as the channel buffer allows before it is closed.
func (b *Board) Subscribe() (<-chan Update, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	sub := newSubscriber()
	b.subs[id] = sub
	go sub.forward()

	var once sync.Once
	return sub.out, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.done)
		})
	}
}

// Dropped returns the number of progress updates evicted for slow subscribers
func (b *Board) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Board) publishLocked(progress bool) {
	u := Update{Message: b.message, Touched: b.touched, Progress: progress, Time: time.Now()}
	for _, sub := range b.subs {
		if sub.push(u) {
			b.dropped++
		}
	}
}

// subscriber moves updates from an unbounded queue to its channel
type subscriber struct {
	out  chan Update
	wake chan struct{}
	done chan struct{}

	mu    sync.Mutex
	queue []Update
}

func newSubscriber() *subscriber {
	return &subscriber{
		out:  make(chan Update, subscriberBuffer),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// push queues u and reports whether a progress update was evicted to make room
func (s *subscriber) push(u Update) bool {
	s.mu.Lock()
	s.queue = append(s.queue, u)
	evicted := false
	if len(s.queue) > subscriberBuffer {
		if i := slices.IndexFunc(s.queue, func(q Update) bool { return q.Progress }); i >= 0 {
			s.queue = slices.Delete(s.queue, i, i+1)
			evicted = true
		}
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return evicted
}

func (s *subscriber) next() (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Update{}, false
	}
	u := s.queue[0]
	s.queue = s.queue[1:]
	return u, true
}

func (s *subscriber) forward() {
	for {
		u, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				close(s.out)
				return
			}
		}
		select {
		case s.out <- u:
		case <-s.done:
			s.flush(u)
			return
		}
	}
}

// flush hands pending updates to the channel without blocking, then closes it
func (s *subscriber) flush(first Update) {
	defer close(s.out)
	for u, ok := first, true; ok; u, ok = s.next() {
		select {
		case s.out <- u:
		default:
			return
		}
	}
}

// progressMessage formats "Training step 1 (not touching): 42%"
func progressMessage(p training.Progress) string {
	return fmt.Sprintf("Training %s: %d%%", stepName(p.Phase), p.Percent)
}

func stepName(p training.Phase) string {
	switch p {
	case training.PhaseCollectNegative:
		return "step 1 (not touching)"
	case training.PhaseCollectPositive:
		return "step 2 (touching)"
	default:
		return p.String()
	}
}

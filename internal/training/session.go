// Package training collects labeled exemplars in guided phases.
//
// A Session moves one way through CollectNegative, CollectPositive and Ready.
// The Coordinator runs the current phase: it captures a fixed number of
// embeddings, stores each under the phase label, reports progress after every
// sample and advances the session when the phase completes.
package training

import (
	"sync"

	"github.com/tphakala/handsoff-go/internal/classifier"
)

// Phase is a step of the guided training flow
type Phase int

const (
	PhaseCollectNegative Phase = iota // user keeps hands away from the face
	PhaseCollectPositive              // user touches the face
	PhaseReady                        // training finished, detection may run
)

// String returns the phase name used in logs
func (p Phase) String() string {
	switch p {
	case PhaseCollectNegative:
		return "collect_negative"
	case PhaseCollectPositive:
		return "collect_positive"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Label returns the label exemplars of this phase are stored under.
// PhaseReady has no label and reports false.
func (p Phase) Label() (classifier.Label, bool) {
	switch p {
	case PhaseCollectNegative:
		return classifier.LabelNotTouching, true
	case PhaseCollectPositive:
		return classifier.LabelTouching, true
	default:
		return 0, false
	}
}

// Next returns the phase following p. PhaseReady is terminal.
func (p Phase) Next() Phase {
	if p >= PhaseReady {
		return PhaseReady
	}
	return p + 1
}

// Step returns the user-facing step number, 1 for negative, 2 for positive and 3 for ready
func (p Phase) Step() int {
	return int(p) + 1
}

// Session holds the training state of one process run.
// It is read concurrently and mutated only by a Coordinator.
type Session struct {
	mu        sync.RWMutex
	id        string
	phase     Phase
	collected int
}

// NewSession returns a session in PhaseCollectNegative. The id correlates log lines.
func NewSession(id string) *Session {
	return &Session{id: id}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Phase returns the current phase
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// SamplesCollected returns the samples collected in the current phase run
func (s *Session) SamplesCollected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collected
}

// Ready reports whether both collection phases are complete
func (s *Session) Ready() bool {
	return s.Phase() == PhaseReady
}

func (s *Session) resetCounter() {
	s.mu.Lock()
	s.collected = 0
	s.mu.Unlock()
}

func (s *Session) incrementCounter() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collected++
	return s.collected
}

// advance moves to the next phase and returns the old and new phases
func (s *Session) advance() (from, to Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from = s.phase
	s.phase = s.phase.Next()
	s.collected = 0
	return from, s.phase
}

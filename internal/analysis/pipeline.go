package analysis

import (
	"context"
	"fmt"

	"github.com/tphakala/handsoff-go/internal/alert"
	"github.com/tphakala/handsoff-go/internal/classifier"
	"github.com/tphakala/handsoff-go/internal/conf"
	"github.com/tphakala/handsoff-go/internal/detector"
	"github.com/tphakala/handsoff-go/internal/embedding"
	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
	"github.com/tphakala/handsoff-go/internal/observability/metrics"
	"github.com/tphakala/handsoff-go/internal/status"
	"github.com/tphakala/handsoff-go/internal/training"
)

// Collaborators are the outside-world services a pipeline drives
type Collaborators struct {
	Source   embedding.Source
	Player   alert.Player
	Notifier alert.Notifier
}

// Pipeline connects one session's classifier, training coordinator, alert debouncer
// and inference loop.
type Pipeline struct {
	session     *training.Session
	classifier  *classifier.Classifier
	board       *status.Board
	coordinator *training.Coordinator
	debouncer   *alert.Debouncer
	loop        *detector.Loop
	log         logger.Logger
}

// NewPipeline builds the components for session from settings
func NewPipeline(settings *conf.Settings, session *training.Session, board *status.Board, c Collaborators, recorder metrics.Recorder) (*Pipeline, error) {
	log := GetLogger().With(logger.String("session_id", session.ID()))

	metric, err := classifier.ParseMetric(settings.Classifier.Metric)
	if err != nil {
		return nil, err
	}
	clf, err := classifier.New(classifier.Config{K: settings.Classifier.K, Metric: metric},
		classifier.WithLogger(log))
	if err != nil {
		return nil, err
	}

	// the coordinator tags its own logger with the session ID
	coordinator := training.New(session, c.Source, clf,
		training.Config{Samples: settings.Training.Samples, SampleDelay: settings.Training.SampleDelay},
		training.WithObserver(board),
		training.WithMetrics(recorder),
		training.WithLogger(GetLogger()))

	debouncer := alert.New(c.Player, c.Notifier,
		alert.Config{Title: settings.Alert.Title, Body: settings.Alert.Body},
		alert.WithMetrics(recorder),
		alert.WithLogger(log))

	loop := detector.New(session, c.Source, clf, debouncer,
		detector.Config{
			PollInterval:      settings.Detection.PollInterval,
			TouchedConfidence: settings.Detection.TouchedConfidence,
		},
		detector.WithIndicator(board),
		detector.WithMetrics(recorder),
		detector.WithLogger(log))

	return &Pipeline{
		session:     session,
		classifier:  clf,
		board:       board,
		coordinator: coordinator,
		debouncer:   debouncer,
		loop:        loop,
		log:         log,
	}, nil
}

// Train guides the user through both collection phases. Each phase starts when the
// user confirms its prompt; a phase that stops early is reported and offered again,
// except when the embedding source changed dimension, which no retry can fix.
// It returns once the user confirms the run prompt after training.
func (p *Pipeline) Train(ctx context.Context, prompt Prompter) error {
	if !p.session.Ready() {
		p.board.Set(status.MsgStep1Prompt)
	}

	for !p.session.Ready() {
		phase := p.session.Phase()
		msg := status.MsgStep1Prompt
		if phase == training.PhaseCollectPositive {
			msg = status.MsgStep2Prompt
		}

		if err := prompt.Await(ctx, msg); err != nil {
			return promptError(err)
		}

		err := p.coordinator.RunPhase(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return err
		case errors.Is(err, training.ErrPhaseInProgress),
			errors.Is(err, classifier.ErrDimensionMismatch):
			return err
		default:
			p.log.Warn("training phase stopped, waiting for restart",
				logger.String("phase", phase.String()),
				logger.Error(err))
			p.board.Setf(status.MsgStepFailedRetry, phase.Step(), err)
		}
	}

	counts := p.classifier.ExampleCounts()
	p.log.Info("training complete",
		logger.Int("not_touching", counts[classifier.LabelNotTouching]),
		logger.Int("touching", counts[classifier.LabelTouching]))

	if err := prompt.Await(ctx, status.MsgRunModelPrompt); err != nil {
		return promptError(err)
	}
	return nil
}

// Detect runs the inference loop until ctx is cancelled
func (p *Pipeline) Detect(ctx context.Context) error {
	p.board.Set(status.MsgDetectionStart)
	return p.loop.Run(ctx)
}

// Stats returns the alert debouncer counters
func (p *Pipeline) Stats() alert.Stats {
	return p.debouncer.Stats()
}

// Classifier returns the session classifier
func (p *Pipeline) Classifier() *classifier.Classifier {
	return p.classifier
}

func promptError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.New(fmt.Errorf("waiting for user: %w", err)).
			Component("analysis").
			Category(errors.CategoryCancellation).
			Build()
	}
	return errors.New(fmt.Errorf("waiting for user: %w", err)).
		Component("analysis").
		Category(errors.CategoryState).
		Build()
}

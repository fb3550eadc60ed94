// Package analysis runs a realtime hands-off session: guided training followed by
// continuous detection.
package analysis

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/tphakala/handsoff-go/internal/audio"
	"github.com/tphakala/handsoff-go/internal/conf"
	"github.com/tphakala/handsoff-go/internal/embedding"
	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
	"github.com/tphakala/handsoff-go/internal/notification"
	"github.com/tphakala/handsoff-go/internal/observability"
	"github.com/tphakala/handsoff-go/internal/status"
	"github.com/tphakala/handsoff-go/internal/telemetry"
	"github.com/tphakala/handsoff-go/internal/training"
)

// RealtimeAnalysis sets up every collaborator from settings, trains a classifier
// with the user and then detects face touches until ctx is cancelled.
func RealtimeAnalysis(ctx context.Context, settings *conf.Settings, prompt Prompter) error {
	session := training.NewSession(uuid.NewString())
	log := GetLogger().With(logger.String("session_id", session.ID()))

	board := status.NewBoard(status.WithProgressBar(os.Stderr))
	updates, unsubscribe := board.Subscribe()
	defer unsubscribe()
	go printStatus(os.Stdout, updates)

	board.Set(status.MsgStarting)
	log.Info("starting realtime session", logger.String("version", settings.Version))
	conf.CheckDeviceGroups()

	if err := telemetry.InitSentry(settings, settings.Version); err != nil {
		// Error reporting is optional
		log.Warn("sentry initialization failed", logger.Error(err))
	}
	defer telemetry.Flush()

	m, err := observability.NewMetrics()
	if err != nil {
		return errors.New(fmt.Errorf("error initializing metrics: %w", err)).
			Component("analysis").
			Category(errors.CategorySystem).
			Build()
	}

	// wg tracks the telemetry endpoint goroutines
	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if settings.Telemetry.Enabled {
		if err := startTelemetryEndpoint(ctx, &wg, settings, m); err != nil {
			return err
		}
	}

	source, closeSource, err := newEmbeddingSource(settings)
	if err != nil {
		return err
	}
	defer closeSource()
	board.Set(status.MsgCameraReady)

	clip, err := audio.LoadAlertClip(settings.Alert.Sound)
	if err != nil {
		return err
	}
	player, err := audio.NewPlayer(clip)
	if err != nil {
		return err
	}
	defer func() {
		if err := player.Close(); err != nil {
			log.Warn("closing audio player", logger.Error(err))
		}
	}()

	notifier, err := notification.NewServiceFromSettings(settings, m.Recorder())
	if err != nil {
		return err
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			log.Warn("closing notification service", logger.Error(err))
		}
	}()

	pipeline, err := NewPipeline(settings, session, board, Collaborators{
		Source:   source,
		Player:   player,
		Notifier: notifier,
	}, m.Recorder())
	if err != nil {
		return err
	}

	return runSession(ctx, pipeline, prompt, log)
}

// runSession trains and then detects. Cancellation at any point ends the session
// without an error.
func runSession(ctx context.Context, p *Pipeline, prompt Prompter, log logger.Logger) error {
	if err := p.Train(ctx, prompt); err != nil {
		if ctx.Err() != nil {
			log.Info("session cancelled during training")
			return nil
		}
		return err
	}

	if err := p.Detect(ctx); err != nil {
		return err
	}

	stats := p.Stats()
	log.Info("session finished",
		logger.Uint64("touches", stats.Triggers),
		logger.Uint64("sounds_played", stats.SoundsStarted),
		logger.Uint64("notifications", stats.Notifications))
	return nil
}

// newEmbeddingSource loads the feature extractor and picks the frame source: a replay
// directory when configured, otherwise the live snapshot file.
func newEmbeddingSource(settings *conf.Settings) (embedding.Source, func(), error) {
	var frames embedding.FrameSource
	if settings.Camera.ReplayDir != "" {
		dir, err := embedding.NewDirectoryFrameSource(settings.Camera.ReplayDir)
		if err != nil {
			return nil, nil, err
		}
		GetLogger().Info("replaying recorded frames",
			logger.String("dir", settings.Camera.ReplayDir),
			logger.Int("frames", dir.Len()))
		frames = dir
	} else {
		frames = embedding.NewFileFrameSource(settings.Camera.Frame, settings.Camera.MaxAge)
	}

	extractor, err := embedding.NewExtractor(embedding.ExtractorConfig{
		ModelPath: settings.Embedding.Model,
		Threads:   settings.Embedding.Threads,
		InputSize: settings.Embedding.InputSize,
	})
	if err != nil {
		return nil, nil, err
	}

	return embedding.NewFrameEmbedder(frames, extractor), extractor.Close, nil
}

// startTelemetryEndpoint serves Prometheus metrics until ctx is cancelled
func startTelemetryEndpoint(ctx context.Context, wg *sync.WaitGroup, settings *conf.Settings, m *observability.Metrics) error {
	endpoint, err := observability.NewEndpoint(settings, m)
	if err != nil {
		return err
	}
	if err := endpoint.Start(ctx, wg); err != nil {
		return errors.New(fmt.Errorf("error starting telemetry endpoint: %w", err)).
			Component("analysis").
			Category(errors.CategoryNetwork).
			Build()
	}
	GetLogger().Info("telemetry endpoint started", logger.String("addr", endpoint.Addr().String()))
	return nil
}

// printStatus echoes status changes to w until the subscription ends. Per-sample
// progress lines are left to the progress bar.
func printStatus(w io.Writer, updates <-chan status.Update) {
	var last status.Update
	for u := range updates {
		if !u.Progress && u.Message != last.Message {
			_, _ = fmt.Fprintln(w, u.Message)
		}
		if u.Touched != last.Touched {
			_, _ = fmt.Fprintln(w, touchedLine(u.Touched))
		}
		last = u
	}
}

func touchedLine(touched bool) string {
	if touched {
		return "[TOUCHING] hands off!"
	}
	return "[clear]"
}

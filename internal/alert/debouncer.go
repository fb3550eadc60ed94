// Package alert turns touch detections into an alert sound and a notification request.
//
// The sound is debounced: a Trigger starts playback only while the debouncer is
// armed and disarms it; the end of that playback re-arms it. A notification is
// requested on every Trigger, throttling is left to the notifier.
package alert

import (
	"sync"

	"github.com/tphakala/handsoff-go/internal/logger"
	"github.com/tphakala/handsoff-go/internal/observability/metrics"
)

// Default notification text
const (
	DefaultTitle = "Hands off"
	DefaultBody  = "You just touched your face"
)

// Player plays the alert sound.
// Play starts playback and returns; done is called exactly once when that playback
// finishes. When Play returns an error, done is never called.
type Player interface {
	Play(done func()) error
}

// Notifier delivers user notifications
type Notifier interface {
	Notify(title, body string) error
}

// Config holds the notification text
type Config struct {
	Title string
	Body  string
}

// Stats counts debouncer activity
type Stats struct {
	Triggers        uint64 // Trigger calls
	SoundsStarted   uint64 // playbacks started
	SoundsFinished  uint64 // playback finished events
	SoundSuppressed uint64 // triggers while a sound was already playing
	PlayFailures    uint64 // playbacks that failed to start
	Notifications   uint64 // notification requests issued
	NotifyFailures  uint64 // notification requests that returned an error
}

// Option configures a Debouncer
type Option func(*Debouncer)

// WithMetrics sets the metrics recorder
func WithMetrics(r metrics.Recorder) Option {
	return func(d *Debouncer) {
		d.metrics = metrics.OrNoOp(r)
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(d *Debouncer) {
		if l != nil {
			d.log = l
		}
	}
}

// Debouncer coordinates the alert sound and notifications. It is safe for concurrent use.
type Debouncer struct {
	player   Player
	notifier Notifier
	cfg      Config
	metrics  metrics.Recorder
	log      logger.Logger

	mu    sync.Mutex
	armed bool
	stats Stats
}

// New returns an armed debouncer
func New(player Player, notifier Notifier, cfg Config, opts ...Option) *Debouncer {
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Body == "" {
		cfg.Body = DefaultBody
	}

	d := &Debouncer{
		player:   player,
		notifier: notifier,
		cfg:      cfg,
		metrics:  metrics.NewNoOpRecorder(),
		log:      GetLogger(),
		armed:    true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger reacts to a detected touch: it starts the sound if armed and always
// requests a notification.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	d.stats.Triggers++
	play := d.armed
	if play {
		d.armed = false
		d.stats.SoundsStarted++
	} else {
		d.stats.SoundSuppressed++
	}
	d.mu.Unlock()

	if play {
		d.startSound()
	} else {
		d.metrics.RecordOperation(metrics.OpAlertTrigger, metrics.StatusSuppressed)
	}

	d.notify()
}

// startSound starts playback; the player is called outside the lock because its
// done callback may run synchronously.
func (d *Debouncer) startSound() {
	if err := d.player.Play(d.PlaybackFinished); err != nil {
		// No finished event will arrive for a playback that never started
		d.mu.Lock()
		d.armed = true
		d.stats.SoundsStarted--
		d.stats.PlayFailures++
		d.mu.Unlock()

		d.metrics.RecordOperation(metrics.OpAlertTrigger, metrics.StatusError)
		d.metrics.RecordError(metrics.OpSoundPlayback, "start")
		d.log.Warn("alert sound failed to start", logger.Error(err))
		return
	}
	d.metrics.RecordOperation(metrics.OpAlertTrigger, metrics.StatusPlayed)
	d.log.Debug("alert sound started")
}

func (d *Debouncer) notify() {
	d.mu.Lock()
	d.stats.Notifications++
	d.mu.Unlock()

	if err := d.notifier.Notify(d.cfg.Title, d.cfg.Body); err != nil {
		d.mu.Lock()
		d.stats.NotifyFailures++
		d.mu.Unlock()
		d.log.Warn("notification request failed", logger.Error(err))
	}
}

// PlaybackFinished re-arms the sound. It is the Player's done callback.
func (d *Debouncer) PlaybackFinished() {
	d.mu.Lock()
	d.armed = true
	d.stats.SoundsFinished++
	d.mu.Unlock()

	d.metrics.RecordOperation(metrics.OpSoundPlayback, metrics.StatusFinished)
	d.log.Debug("alert sound finished")
}

// SoundArmed reports whether the next Trigger will play the sound
func (d *Debouncer) SoundArmed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Stats returns a snapshot of the counters
func (d *Debouncer) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

package audio

import (
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
)

// Player plays a Clip through the default playback device.
// Each Play opens its own device, which is released once the clip has drained.
type Player struct {
	clip *Clip
	data []byte
	log  logger.Logger

	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	closed bool
	quit   chan struct{}
	wg     sync.WaitGroup
}

// NewPlayer initializes the audio backend for clip
func NewPlayer(clip *Clip) (*Player, error) {
	if clip == nil || clip.Frames() == 0 {
		return nil, errors.Newf("empty sound clip").
			Component("audio").
			Category(errors.CategoryValidation).
			Build()
	}

	log := GetLogger()
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug("malgo", logger.String("message", message))
	})
	if err != nil {
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("operation", "init_context").
			Build()
	}

	return &Player{
		clip: clip,
		data: clip.Bytes(),
		log:  log,
		ctx:  ctx,
		quit: make(chan struct{}),
	}, nil
}

// Play starts playback and returns. done is called once after the last frame
// has been handed to the device, or when the player is closed.
func (p *Player) Play(done func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.Newf("player is closed").
			Component("audio").
			Category(errors.CategoryState).
			Build()
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(p.clip.Channels)
	deviceConfig.SampleRate = uint32(p.clip.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	pb := newPlayback(p.data, p.clip.Channels*2)
	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: pb.onData,
	})
	if err != nil {
		return errors.New(err).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("operation", "init_device").
			Build()
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return errors.New(err).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("operation", "start_device").
			Build()
	}

	p.log.Debug("playback started",
		logger.Int("frames", p.clip.Frames()),
		logger.Duration("duration", p.clip.Duration()))

	// Devices cannot be released from their own data callback
	p.wg.Go(func() {
		select {
		case <-pb.drained:
		case <-p.quit:
		}
		_ = device.Stop()
		device.Uninit()
		if done != nil {
			done()
		}
	})

	return nil
}

// Close stops active playbacks and releases the audio backend
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.quit)
	p.mu.Unlock()

	p.wg.Wait()

	if err := p.ctx.Uninit(); err != nil {
		return errors.New(err).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("operation", "uninit_context").
			Build()
	}
	p.ctx.Free()
	return nil
}

// playback feeds one clip to a device data callback
type playback struct {
	data       []byte
	frameBytes int
	offset     int
	drained    chan struct{}
	once       sync.Once
}

func newPlayback(data []byte, frameBytes int) *playback {
	return &playback{data: data, frameBytes: frameBytes, drained: make(chan struct{})}
}

// onData copies the next frameCount frames into out, padding with silence after the end
func (pb *playback) onData(out, _ []byte, frameCount uint32) {
	want := min(int(frameCount)*pb.frameBytes, len(out))
	n := copy(out[:want], pb.data[pb.offset:])
	pb.offset += n
	clear(out[n:want])

	if pb.offset >= len(pb.data) {
		pb.once.Do(func() { close(pb.drained) })
	}
}

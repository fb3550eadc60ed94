// Package audio loads and plays the alert sound.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/wav"

	"github.com/tphakala/handsoff-go/internal/errors"
)

// Clip is a decoded sound held in memory as interleaved signed 16-bit samples
type Clip struct {
	Samples    []int16
	Channels   int
	SampleRate int
}

// Frames returns the number of sample frames
func (c *Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playback length
func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Bytes returns the samples as little-endian PCM, the layout of malgo.FormatS16
func (c *Clip) Bytes() []byte {
	out := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// LoadWAV decodes a PCM WAV file with 8, 16, 24 or 32 bit samples into a Clip
func LoadWAV(path string) (*Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryFileIO).
			Context("operation", "open_sound").
			Build()
	}
	defer func() { _ = file.Close() }()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, errors.Newf("%s is not a valid WAV file", path).
			Component("audio").
			Category(errors.CategoryValidation).
			Build()
	}

	if decoder.NumChans != 1 && decoder.NumChans != 2 {
		return nil, errors.Newf("unsupported number of channels: %d", decoder.NumChans).
			Component("audio").
			Category(errors.CategoryValidation).
			Build()
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.New(fmt.Errorf("decode %s: %w", path, err)).
			Component("audio").
			Category(errors.CategoryFileIO).
			Build()
	}

	convert, err := sampleConverter(int(decoder.BitDepth))
	if err != nil {
		return nil, err
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = convert(v)
	}

	return &Clip{
		Samples:    samples,
		Channels:   int(decoder.NumChans),
		SampleRate: int(decoder.SampleRate),
	}, nil
}

// sampleConverter returns a function scaling samples of bitDepth to 16 bits
func sampleConverter(bitDepth int) (func(int) int16, error) {
	switch bitDepth {
	case 8:
		// 8-bit WAV samples are unsigned
		return func(v int) int16 { return int16((v - 128) << 8) }, nil
	case 16:
		return func(v int) int16 { return int16(v) }, nil
	case 24:
		return func(v int) int16 { return int16(v >> 8) }, nil
	case 32:
		return func(v int) int16 { return int16(v >> 16) }, nil
	default:
		return nil, errors.Newf("unsupported bit depth: %d", bitDepth).
			Component("audio").
			Category(errors.CategoryValidation).
			Build()
	}
}

// Tone returns a mono sine tone with short linear fades at both ends
func Tone(frequency float64, duration time.Duration, sampleRate int) *Clip {
	frames := int(duration.Seconds() * float64(sampleRate))
	fade := min(frames/2, sampleRate/100) // 10ms
	samples := make([]int16, frames)

	const amplitude = 0.5 * math.MaxInt16
	for i := range frames {
		gain := 1.0
		switch {
		case i < fade:
			gain = float64(i) / float64(fade)
		case i >= frames-fade:
			gain = float64(frames-1-i) / float64(fade)
		}
		v := math.Sin(2 * math.Pi * frequency * float64(i) / float64(sampleRate))
		samples[i] = int16(v * amplitude * gain)
	}

	return &Clip{Samples: samples, Channels: 1, SampleRate: sampleRate}
}

// DefaultAlertTone is the sound used when no alert file is configured
func DefaultAlertTone() *Clip {
	return Tone(880, 400*time.Millisecond, 44100)
}

// LoadAlertClip loads the configured alert file, or the built-in tone when path is empty
func LoadAlertClip(path string) (*Clip, error) {
	if path == "" {
		return DefaultAlertTone(), nil
	}
	return LoadWAV(path)
}

package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/handsoff-go/internal/errors"
)

func writeWAV(t *testing.T, path string, bitDepth, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 16000, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: 16000},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func TestLoadWAV16Bit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "alert.wav")
	writeWAV(t, path, 16, 2, []int{0, 100, -100, 32767, -32768, 5})

	clip, err := LoadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, clip.Channels)
	assert.Equal(t, 16000, clip.SampleRate)
	assert.Equal(t, []int16{0, 100, -100, 32767, -32768, 5}, clip.Samples)
	assert.Equal(t, 3, clip.Frames())
}

func TestLoadWAV24BitScaled(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "alert24.wav")
	writeWAV(t, path, 24, 1, []int{256 * 100, -256 * 100})

	clip, err := LoadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, []int16{100, -100}, clip.Samples)
}

func TestLoadWAVErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not RIFF data"), 0o600))

	_, err := LoadWAV(filepath.Join(dir, "missing.wav"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))

	_, err = LoadWAV(garbage)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestSampleConverter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bitDepth int
		in       int
		want     int16
	}{
		{8, 128, 0},
		{8, 255, 127 << 8},
		{8, 0, -128 << 8},
		{16, -1234, -1234},
		{24, 0x7FFFFF, 0x7FFF},
		{32, -0x80000000, -0x8000},
	}

	for _, tt := range tests {
		convert, err := sampleConverter(tt.bitDepth)
		require.NoError(t, err)
		assert.Equal(t, tt.want, convert(tt.in), "bit depth %d input %d", tt.bitDepth, tt.in)
	}

	_, err := sampleConverter(12)
	assert.Error(t, err)
}

func TestTone(t *testing.T) {
	t.Parallel()

	clip := Tone(1000, 100*time.Millisecond, 8000)
	assert.Equal(t, 800, clip.Frames())
	assert.Equal(t, 1, clip.Channels)
	assert.Equal(t, 100*time.Millisecond, clip.Duration())

	// Fades start and end at silence
	assert.Zero(t, clip.Samples[0])
	assert.Zero(t, clip.Samples[len(clip.Samples)-1])

	var peak int16
	for _, s := range clip.Samples {
		peak = max(peak, s)
	}
	assert.Greater(t, peak, int16(16000))
	assert.LessOrEqual(t, peak, int16(16384))

	assert.NotZero(t, DefaultAlertTone().Frames())
}

func TestClipBytes(t *testing.T) {
	t.Parallel()

	clip := &Clip{Samples: []int16{1, -2}, Channels: 1, SampleRate: 8000}
	b := clip.Bytes()
	require.Len(t, b, 4)
	assert.Equal(t, int16(1), int16(binary.LittleEndian.Uint16(b[0:])))
	assert.Equal(t, int16(-2), int16(binary.LittleEndian.Uint16(b[2:])))

	empty := &Clip{}
	assert.Zero(t, empty.Frames())
	assert.Zero(t, empty.Duration())
}

func TestPlaybackDrains(t *testing.T) {
	t.Parallel()

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	pb := newPlayback(data, 2)

	out := make([]byte, 8)
	pb.onData(out, nil, 4)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, out)
	select {
	case <-pb.drained:
		t.Fatal("drained before the end of the clip")
	default:
	}

	pb.onData(out, nil, 4)
	assert.Equal(t, []byte{9, 10, 0, 0, 0, 0, 0, 0}, out)
	select {
	case <-pb.drained:
	default:
		t.Fatal("not drained after the last frame")
	}

	// Further callbacks produce silence and do not panic
	pb.onData(out, nil, 4)
	assert.Equal(t, make([]byte, 8), out)
}

func TestNewPlayerRejectsEmptyClip(t *testing.T) {
	t.Parallel()

	_, err := NewPlayer(&Clip{Channels: 1, SampleRate: 8000})
	assert.Error(t, err)
	_, err = NewPlayer(nil)
	assert.Error(t, err)
}

func TestLoadAlertClip(t *testing.T) {
	t.Parallel()

	clip, err := LoadAlertClip("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAlertTone().Frames(), clip.Frames())

	_, err = LoadAlertClip(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
}

package errors

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu       sync.Mutex
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.IsReported())
}

func TestBuilderKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("capture failed")).
		Component("embedding").
		Category(CategoryCapture).
		Context("source", "directory").
		ModelContext("/opt/models/MobileNet.TFLITE", 224).
		Build()

	assert.Equal(t, "embedding", ee.GetComponent())
	assert.Equal(t, CategoryCapture, ee.Category)

	ctx := ee.GetContext()
	assert.Equal(t, "directory", ctx["source"])
	assert.Equal(t, "tflite", ctx["model_file"])
	assert.Equal(t, 224, ctx["model_input_size"])

	// the returned map is a copy
	ctx["source"] = "changed"
	assert.Equal(t, "directory", ee.GetContext()["source"])
}

func TestSentinelMatchingThroughWrap(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("capture unavailable")
	ee := New(fmt.Errorf("%w: camera busy", sentinel)).
		Category(CategoryCapture).
		Build()

	var wrapped error = ee
	assert.True(t, Is(wrapped, sentinel))
	assert.True(t, IsCategory(wrapped, CategoryCapture))
	assert.False(t, IsCategory(wrapped, CategoryEmbedding))
	assert.False(t, IsCategory(fmt.Errorf("plain"), CategoryCapture))

	var target *EnhancedError
	require.True(t, As(fmt.Errorf("outer: %w", ee), &target))
	assert.Equal(t, CategoryCapture, target.Category)
}

func TestTelemetryReporterReceivesErrors(t *testing.T) {
	reporter := &recordingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(fmt.Errorf("model load failed")).Build()

	require.Len(t, reporter.reported, 1)
	assert.Same(t, ee, reporter.reported[0])
	assert.True(t, ee.IsReported())
	assert.Equal(t, CategoryModelLoad, ee.Category)
}

func TestDetectCategoryFromComponent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		msg       string
		component string
		want      ErrorCategory
	}{
		{"frame keyword", "frame not ready", "detector", CategoryCapture},
		{"dimension keyword", "dimension 3 != 4", "classifier", CategoryValidation},
		{"classifier component", "empty store", "classifier", CategoryClassifier},
		{"audio component", "device busy", "audio", CategoryAudio},
		{"unknown", "something odd", "nowhere", CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectCategory(fmt.Errorf("%s", tt.msg), tt.component))
		})
	}
}

func TestScrubMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"url query", "POST https://example.com/hook?token=abc failed", "POST https://example.com/hook?[REDACTED] failed"},
		{"api key", "bad api_key=supersecret", "bad [SECRET_REDACTED]"},
		{"home path", "open /home/alice/models/x.tflite", "open /home/[USER]/models/x.tflite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scrubMessage(tt.input))
		})
	}
}

func TestFileErrorKeepsOnlyExtension(t *testing.T) {
	t.Parallel()

	ee := FileError(fmt.Errorf("open failed"), "/home/alice/.config/handsoff/config.YAML")
	assert.Equal(t, CategoryFileIO, ee.Category)
	assert.Equal(t, map[string]any{"file_extension": "yaml"}, ee.GetContext())

	assert.Nil(t, FileError(fmt.Errorf("open failed"), "noext").GetContext())
}

func TestCallerComponentFromStack(t *testing.T) {
	t.Parallel()

	// the test binary of this package has no other handsoff package on the stack
	assert.Equal(t, ComponentUnknown, callerComponent())
}

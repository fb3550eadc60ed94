// Package errors wraps errors with the component and category that produced them,
// so failures can be grouped in logs and, when enabled, reported to Sentry.
//
//	return errors.New(fmt.Errorf("predict: %w", err)).
//		Component("detector").
//		Category(errors.CategoryInference).
//		Context("operation", "predict").
//		Build()
//
// Sentinels are plain errors (NewStd) and are matched with Is through any number
// of EnhancedError layers.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrorCategory groups errors for logs, metrics labels and Sentry fingerprints
type ErrorCategory string

// CategorizedError lets an error supply its own category
type CategorizedError interface {
	error
	ErrorCategory() ErrorCategory
}

const (
	CategoryGeneric       ErrorCategory = "generic"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryState         ErrorCategory = "state"
	CategoryLimit         ErrorCategory = "limit"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryNetwork       ErrorCategory = "network"
	CategorySystem        ErrorCategory = "system-resource"
	CategoryCancellation  ErrorCategory = "cancellation"

	CategoryModelLoad    ErrorCategory = "model-loading"
	CategoryModelInit    ErrorCategory = "model-initialization"
	CategoryCapture      ErrorCategory = "frame-capture"
	CategoryEmbedding    ErrorCategory = "embedding"
	CategoryClassifier   ErrorCategory = "classifier"
	CategoryTraining     ErrorCategory = "training"
	CategoryInference    ErrorCategory = "inference"
	CategoryAudio        ErrorCategory = "audio-playback"
	CategoryNotification ErrorCategory = "notification"
)

// ComponentUnknown is used when no handsoff package is found on the stack
const ComponentUnknown = "unknown"

// reporting is set while an enabled TelemetryReporter is installed
var reporting atomic.Bool

// EnhancedError is an error annotated with where and what kind of failure it is
type EnhancedError struct {
	Err       error
	Category  ErrorCategory
	Timestamp time.Time

	component string
	context   map[string]any

	mu       sync.Mutex
	reported bool
}

func (ee *EnhancedError) Error() string {
	if ee.Err == nil {
		return string(ee.Category)
	}
	return ee.Err.Error()
}

func (ee *EnhancedError) Unwrap() error { return ee.Err }

// Is matches another EnhancedError by category and anything else through the
// wrapped error
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return stderrors.Is(ee.Err, target)
}

func (ee *EnhancedError) ErrorCategory() ErrorCategory { return ee.Category }

// GetComponent returns the component set on the builder or found on the stack
func (ee *EnhancedError) GetComponent() string { return ee.component }

// GetContext returns a copy of the context values
func (ee *EnhancedError) GetContext() map[string]any {
	return maps.Clone(ee.context)
}

// MarkReported records that the error has been sent to telemetry
func (ee *EnhancedError) MarkReported() {
	ee.mu.Lock()
	ee.reported = true
	ee.mu.Unlock()
}

func (ee *EnhancedError) IsReported() bool {
	ee.mu.Lock()
	defer ee.mu.Unlock()
	return ee.reported
}

// ErrorBuilder collects annotations until Build
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New starts an EnhancedError around err
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf is New(fmt.Errorf(format, args...))
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context attaches a value. Values reach Sentry, so never pass paths or secrets.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// ModelContext records the model file type and the expected input edge
func (eb *ErrorBuilder) ModelContext(modelPath string, inputSize int) *ErrorBuilder {
	if ext := fileExtension(modelPath); ext != "" {
		eb.Context("model_file", ext)
	}
	if inputSize > 0 {
		eb.Context("model_input_size", inputSize)
	}
	return eb
}

// Build returns the error. Without a reporter, missing component and category
// default to unknown and generic; with one they are inferred from the call
// stack and message, and the error is reported before Build returns.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Category:  eb.category,
		Timestamp: time.Now(),
		component: eb.component,
		context:   eb.context,
	}

	if !reporting.Load() {
		if ee.component == "" {
			ee.component = ComponentUnknown
		}
		if ee.Category == "" {
			ee.Category = CategoryGeneric
		}
		return ee
	}

	if ee.component == "" {
		ee.component = callerComponent()
	}
	if ee.Category == "" {
		ee.Category = detectCategory(eb.err, ee.component)
	}
	reportToTelemetry(ee)
	return ee
}

// FileError is a file-io error carrying the extension of the file involved
func FileError(err error, path string) *EnhancedError {
	b := New(err).Category(CategoryFileIO)
	if ext := fileExtension(path); ext != "" {
		b.Context("file_extension", ext)
	}
	return b.Build()
}

func fileExtension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

const internalPrefix = "github.com/tphakala/handsoff-go/internal/"

// callerComponent names the first handsoff package on the stack outside this one.
// The conf package reports as "configuration".
func callerComponent() string {
	pcs := make([]uintptr, 32)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(3, pcs)])
	for {
		frame, more := frames.Next()
		if rest, ok := strings.CutPrefix(frame.Function, internalPrefix); ok {
			pkg, _, _ := strings.Cut(rest, ".")
			pkg, _, _ = strings.Cut(pkg, "/")
			switch pkg {
			case "errors":
			case "conf":
				return "configuration"
			default:
				return pkg
			}
		}
		if !more {
			return ComponentUnknown
		}
	}
}

// detectCategory infers a category from the wrapped error, then its message,
// then the component
func detectCategory(err error, component string) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}
	var categorized CategorizedError
	if stderrors.As(err, &categorized) {
		return categorized.ErrorCategory()
	}

	msg := strings.ToLower(err.Error())
	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(msg, w) {
				return true
			}
		}
		return false
	}
	switch {
	case contains("context canceled"):
		return CategoryCancellation
	case contains("model") && contains("load"):
		return CategoryModelLoad
	case contains("model"):
		return CategoryModelInit
	case contains("frame", "capture"):
		return CategoryCapture
	case contains("dimension", "invalid"):
		return CategoryValidation
	case contains("file", "open"):
		return CategoryFileIO
	}

	byComponent := map[string]ErrorCategory{
		"classifier":    CategoryClassifier,
		"embedding":     CategoryEmbedding,
		"training":      CategoryTraining,
		"detector":      CategoryInference,
		"audio":         CategoryAudio,
		"notification":  CategoryNotification,
		"configuration": CategoryConfiguration,
	}
	if c, ok := byComponent[component]; ok {
		return c
	}
	return CategoryGeneric
}

// IsCategory reports whether err wraps an EnhancedError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	return stderrors.As(err, &ee) && ee.Category == category
}

// Standard library passthroughs, so packages only import this one

func NewStd(text string) error { return stderrors.New(text) }
func Is(err, target error) bool { return stderrors.Is(err, target) }
func As(err error, target any) bool { return stderrors.As(err, target) }
func Unwrap(err error) error { return stderrors.Unwrap(err) }
func Join(errs ...error) error { return stderrors.Join(errs...) }

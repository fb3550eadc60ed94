package embedding

import (
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/tphakala/go-tflite"
	"golang.org/x/image/draw"

	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
)

// ExtractorConfig configures the feature extraction model
type ExtractorConfig struct {
	ModelPath string // TensorFlow Lite model with one NHWC float32 image input
	Threads   int    // interpreter threads, 0 picks from the CPU count
	InputSize int    // expected square input edge, 0 accepts whatever the model declares
}

// Extractor computes embeddings of frames with a pretrained TensorFlow Lite model
// such as a MobileNet feature extractor. It is safe for concurrent use.
type Extractor struct {
	mu          sync.Mutex
	interpreter *tflite.Interpreter
	width       int
	height      int
	dim         int
	log         logger.Logger
}

// NewExtractor loads the model and allocates its tensors
func NewExtractor(cfg ExtractorConfig) (*Extractor, error) {
	start := time.Now()
	log := GetLogger()

	modelData, err := os.ReadFile(cfg.ModelPath)
	if err != nil {
		return nil, errors.New(err).
			Component("embedding").
			Category(errors.CategoryModelLoad).
			ModelContext(cfg.ModelPath, cfg.InputSize).
			Context("operation", "model_load").
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, errors.New(fmt.Errorf("cannot load TensorFlow Lite model")).
			Component("embedding").
			Category(errors.CategoryModelInit).
			ModelContext(cfg.ModelPath, cfg.InputSize).
			Context("model_size_kb", len(modelData)/1024).
			Build()
	}

	threads := determineThreadCount(cfg.Threads)
	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threads)
	options.SetErrorReporter(func(msg string, user_data any) {
		log.Error("TFLite error", logger.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		return nil, errors.New(fmt.Errorf("cannot create interpreter")).
			Component("embedding").
			Category(errors.CategoryModelInit).
			Build()
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		return nil, errors.New(fmt.Errorf("tensor allocation failed: %v", status)).
			Component("embedding").
			Category(errors.CategoryModelInit).
			Build()
	}

	e := &Extractor{interpreter: interpreter, log: log}
	if err := e.inspectTensors(cfg.InputSize); err != nil {
		interpreter.Delete()
		return nil, err
	}

	log.Info("feature extractor initialized",
		logger.String("model", cfg.ModelPath),
		logger.Int("threads", threads),
		logger.Int("input_width", e.width),
		logger.Int("input_height", e.height),
		logger.Int("dimension", e.dim),
		logger.Duration("load_time", time.Since(start)))

	return e, nil
}

// inspectTensors reads the input geometry and embedding width from the model
func (e *Extractor) inspectTensors(expectedSize int) error {
	input := e.interpreter.GetInputTensor(0)
	if input == nil {
		return errors.New(fmt.Errorf("cannot get input tensor")).
			Component("embedding").
			Category(errors.CategoryModelInit).
			Build()
	}
	if input.Type() != tflite.Float32 || input.NumDims() != 4 || input.Dim(3) != 3 {
		return errors.New(fmt.Errorf("unsupported input tensor: want float32 [1,H,W,3], got %v with %d dims", input.Type(), input.NumDims())).
			Component("embedding").
			Category(errors.CategoryModelInit).
			Build()
	}
	e.height, e.width = input.Dim(1), input.Dim(2)
	if expectedSize > 0 && (e.width != expectedSize || e.height != expectedSize) {
		return errors.New(fmt.Errorf("model input is %dx%d, configured input size is %d", e.width, e.height, expectedSize)).
			Component("embedding").
			Category(errors.CategoryConfiguration).
			Build()
	}

	output := e.interpreter.GetOutputTensor(0)
	if output == nil || output.NumDims() == 0 {
		return errors.New(fmt.Errorf("cannot get output tensor")).
			Component("embedding").
			Category(errors.CategoryModelInit).
			Build()
	}
	e.dim = output.Dim(output.NumDims() - 1)
	return nil
}

// Dimension returns the embedding length
func (e *Extractor) Dimension() int {
	return e.dim
}

// Extract returns a fresh embedding vector for img
func (e *Extractor) Extract(img image.Image) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.interpreter == nil {
		return nil, errors.New(fmt.Errorf("%w: extractor is closed", ErrExtractionFailed)).
			Component("embedding").
			Category(errors.CategoryState).
			Build()
	}

	input := e.interpreter.GetInputTensor(0)
	imageToTensor(img, e.width, e.height, input.Float32s())

	start := time.Now()
	if status := e.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.New(fmt.Errorf("%w: tensor invoke failed: %v", ErrExtractionFailed, status)).
			Component("embedding").
			Category(errors.CategoryEmbedding).
			Context("operation", "invoke").
			Context("duration_ms", time.Since(start).Milliseconds()).
			Build()
	}

	output := e.interpreter.GetOutputTensor(0)
	vector := make([]float32, e.dim)
	copy(vector, output.Float32s())
	return vector, nil
}

// Close releases the interpreter. Extract fails afterwards.
func (e *Extractor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.interpreter != nil {
		e.interpreter.Delete()
		e.interpreter = nil
	}
}

// imageToTensor scales img to width x height and writes it to dst in NHWC order
// with channel values normalised to [-1, 1].
func imageToTensor(img image.Image, width, height int, dst []float32) {
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	for y := range height {
		for x := range width {
			off := scaled.PixOffset(x, y)
			base := (y*width + x) * 3
			for c := range 3 {
				dst[base+c] = float32(scaled.Pix[off+c])/127.5 - 1
			}
		}
	}
}

// determineThreadCount bounds the configured thread count by the CPU count
func determineThreadCount(configured int) int {
	cpus := runtime.NumCPU()
	if configured <= 0 {
		// Leave one core for capture and playback
		return max(1, cpus-1)
	}
	return min(configured, cpus)
}

package embedding

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/tphakala/handsoff-go/internal/errors"
)

// FrameSource supplies the current camera frame
type FrameSource interface {
	Frame(ctx context.Context) (image.Image, error)
}

// supportedExtensions are the frame file types with a registered decoder
var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

func isFrameFile(name string) bool {
	return slices.Contains(supportedExtensions, strings.ToLower(filepath.Ext(name)))
}

// FileFrameSource reads the latest snapshot that an external capture tool keeps
// overwriting, for example `ffmpeg -i /dev/video0 -update 1 frame.jpg`.
type FileFrameSource struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
}

// NewFileFrameSource returns a source reading path. Snapshots older than maxAge
// are reported as unavailable; a zero maxAge disables the check.
func NewFileFrameSource(path string, maxAge time.Duration) *FileFrameSource {
	return &FileFrameSource{path: path, maxAge: maxAge, now: time.Now}
}

// Frame decodes the current snapshot
func (s *FileFrameSource) Frame(ctx context.Context) (image.Image, error) {
	if ctx.Err() != nil {
		return nil, cancelledError(ctx)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return nil, captureError(err, "file", "stat_frame")
	}
	if s.maxAge > 0 {
		if age := s.now().Sub(info.ModTime()); age > s.maxAge {
			return nil, captureError(fmt.Errorf("snapshot is %s old", age.Round(time.Millisecond)), "file", "stale_frame")
		}
	}

	img, err := decodeFrame(s.path)
	if err != nil {
		// Most often a snapshot caught mid-write
		return nil, captureError(err, "file", "decode_frame")
	}
	return img, nil
}

// DirectoryFrameSource replays the image files of a directory in lexical order,
// starting over after the last one.
type DirectoryFrameSource struct {
	mu    sync.Mutex
	dir   string
	files []string
	next  int
}

// NewDirectoryFrameSource lists the frame files in dir
func NewDirectoryFrameSource(dir string) (*DirectoryFrameSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("embedding").
			Category(errors.CategoryFileIO).
			Context("operation", "list_frames").
			Build()
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && isFrameFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.Newf("no frame files in %s", dir).
			Component("embedding").
			Category(errors.CategoryNotFound).
			Context("operation", "list_frames").
			Build()
	}
	slices.Sort(files)

	return &DirectoryFrameSource{dir: dir, files: files}, nil
}

// Len returns the number of frames in the replay set
func (s *DirectoryFrameSource) Len() int {
	return len(s.files)
}

// Frame decodes the next file in the replay set
func (s *DirectoryFrameSource) Frame(ctx context.Context) (image.Image, error) {
	if ctx.Err() != nil {
		return nil, cancelledError(ctx)
	}

	s.mu.Lock()
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	img, err := decodeFrame(path)
	if err != nil {
		return nil, captureError(err, "directory", "decode_frame")
	}
	return img, nil
}

func decodeFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/critter/constant"
)

// FrameExts lists accepted frame encodings in lookup order
var FrameExts = []string{"png", "txt"}

// FramePath builds the numbered frame path, index is 1-based: stem_01.png
func FramePath(pattern string, index int, ext string) string {
	return fmt.Sprintf("%s_%02d.%s", pattern, index, ext)
}

// DecodeFunc turns raw frame bytes into a frame value
// name is the asset path, ext is "png" or "txt"
type DecodeFunc[T any] func(name, ext string, data []byte) (T, error)

// FrameError reports a single frame that failed to load
type FrameError struct {
	Index int
	Path  string
	Err   error
}

func (e FrameError) Error() string {
	return fmt.Sprintf("frame %s: %v", e.Path, e.Err)
}

func (e FrameError) Unwrap() error { return e.Err }

// LoadFrames loads frames 1..n of pattern concurrently
// Each frame is isolated: a failure drops that frame only. Loaded frames
// keep index order
func LoadFrames[T any](ctx context.Context, src Source, pattern string, n int, decode DecodeFunc[T]) ([]T, []FrameError) {
	type slot struct {
		val T
		ok  bool
		err *FrameError
	}
	slots := make([]slot, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constant.AudioLoadConcurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			val, path, err := loadFrame(gctx, src, pattern, i+1, decode)
			if err != nil {
				slots[i].err = &FrameError{Index: i + 1, Path: path, Err: err}
				return nil
			}
			slots[i] = slot{val: val, ok: true}
			return nil
		})
	}
	_ = g.Wait()

	var frames []T
	var errs []FrameError
	for _, s := range slots {
		switch {
		case s.ok:
			frames = append(frames, s.val)
		case s.err != nil:
			errs = append(errs, *s.err)
		}
	}
	return frames, errs
}

func loadFrame[T any](ctx context.Context, src Source, pattern string, index int, decode DecodeFunc[T]) (T, string, error) {
	var zero T
	var lastErr error
	var lastPath string
	for _, ext := range FrameExts {
		p := FramePath(pattern, index, ext)
		data, err := ReadAll(ctx, src, p)
		if err != nil {
			lastErr, lastPath = err, p
			continue
		}
		v, err := decode(p, ext, data)
		if err != nil {
			return zero, p, fmt.Errorf("decode: %w", err)
		}
		return v, p, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no frame encodings configured")
	}
	return zero, lastPath, lastErr
}

func stringsReader(s string) io.Reader {
	return bytes.NewReader([]byte(strings.TrimSpace(s) + "\n"))
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/phambaophuc/image-watermark/pkg/utils"
	"go.uber.org/zap"
)

var (
	ErrDirectoryNotFound   = errors.New("input directory not found")
	ErrDirectoryUnreadable = errors.New("input directory unreadable")
)

type State int32

const (
	StateIdle State = iota
	StateScanning
	StateProcessing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

// Applier watermarks a single file.
type Applier interface {
	Apply(inputPath, outputPath string, p models.Params) error
}

// ProgressSink receives one OnProgress call per file, in processing order,
// followed by exactly one OnComplete.
type ProgressSink interface {
	OnProgress(message string)
	OnComplete(result models.BatchResult)
}

// SinkFuncs adapts plain functions to a ProgressSink. Nil fields are skipped.
type SinkFuncs struct {
	Progress func(message string)
	Complete func(result models.BatchResult)
}

func (s SinkFuncs) OnProgress(message string) {
	if s.Progress != nil {
		s.Progress(message)
	}
}

func (s SinkFuncs) OnComplete(result models.BatchResult) {
	if s.Complete != nil {
		s.Complete(result)
	}
}

// Runner processes every supported image of a directory sequentially.
type Runner struct {
	engine Applier
	logger *zap.Logger
	state  atomic.Int32
}

func NewRunner(engine Applier, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{engine: engine, logger: logger}
}

func (r *Runner) State() State {
	return State(r.state.Load())
}

// Run scans spec.InputDir and applies spec.Params to each image, writing
// into spec.OutputDir. Per-file failures are recorded and skipped; a bad
// input directory fails the whole run. Cancelling ctx stops the run between
// files.
func (r *Runner) Run(ctx context.Context, spec models.JobSpec, sink ProgressSink) models.BatchResult {
	if sink == nil {
		sink = SinkFuncs{}
	}

	r.state.Store(int32(StateScanning))
	files, err := Scan(spec.InputDir)
	if err != nil {
		r.logger.Error("Failed to scan input directory",
			zap.String("input_dir", spec.InputDir),
			zap.Error(err))
		return r.finish(sink, models.BatchResult{Errors: []string{err.Error()}})
	}

	if len(files) == 0 {
		msg := fmt.Sprintf("no supported image files found in %s", spec.InputDir)
		return r.finish(sink, models.BatchResult{Errors: []string{msg}})
	}

	r.state.Store(int32(StateProcessing))
	result := models.BatchResult{
		Total:  len(files),
		Errors: []string{},
	}

	for i, name := range files {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("Batch cancelled",
				zap.Int("processed", result.Processed),
				zap.Int("remaining", len(files)-i))
			break
		}

		in := filepath.Join(spec.InputDir, name)
		out := filepath.Join(spec.OutputDir, name)
		if err := r.engine.Apply(in, out, spec.Params); err != nil {
			r.logger.Warn("Failed to watermark file",
				zap.String("file", name),
				zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
		} else {
			result.Processed++
			result.Outputs = append(result.Outputs, out)
		}

		sink.OnProgress(fmt.Sprintf("%d/%d: %s", i+1, len(files), name))
	}

	r.logger.Info("Batch finished",
		zap.String("input_dir", spec.InputDir),
		zap.Int("processed", result.Processed),
		zap.Int("total", result.Total),
		zap.Int("errors", len(result.Errors)))

	return r.finish(sink, result)
}

func (r *Runner) finish(sink ProgressSink, result models.BatchResult) models.BatchResult {
	r.state.Store(int32(StateDone))
	sink.OnComplete(result)
	return result
}

// Scan lists the supported image files directly inside dir, sorted by name.
func Scan(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
		}
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnreadable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnreadable, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !utils.IsSupportedImage(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

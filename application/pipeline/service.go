package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"video-labeler/application/extract"
	"video-labeler/application/recognize"
	"video-labeler/application/report"
	"video-labeler/application/storesync"
	"video-labeler/domain/frame"
)

// DefaultTmpDir is where frames are extracted unless overridden
const DefaultTmpDir = "/tmp/video_recognizer"

// DefaultExtractPeriod is the default number of seconds between frames
const DefaultExtractPeriod = 10

// State is a step of the pipeline
type State int

const (
	StateInit State = iota
	StateExtract
	StateSync
	StateRecognize
	StateReport
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateExtract:
		return "extract"
	case StateSync:
		return "sync"
	case StateRecognize:
		return "recognize"
	case StateReport:
		return "report"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options controls which stages run and how
type Options struct {
	ExtractPeriodSeconds int
	DoExtract            bool
	DoUpload             bool
	DoRecognize          bool
	DoHTML               bool
	VideoPath            string
	TmpDir               string
	SortListingByKey     bool
}

// DefaultOptions returns options with every stage enabled
func DefaultOptions(videoPath string) Options {
	return Options{
		ExtractPeriodSeconds: DefaultExtractPeriod,
		DoExtract:            true,
		DoUpload:             true,
		DoRecognize:          true,
		DoHTML:               true,
		VideoPath:            videoPath,
		TmpDir:               DefaultTmpDir,
	}
}

// Extractor produces frame images
type Extractor interface {
	Extract(ctx context.Context, input extract.Input) (*extract.Result, error)
}

// Syncer pushes frame images to remote storage
type Syncer interface {
	Sync(ctx context.Context, tmpDir string) (*storesync.Result, error)
}

// Recognizer labels the remote frames
type Recognizer interface {
	Recognize(ctx context.Context, input recognize.Input) ([]frame.Record, error)
}

// Reporter writes the report
type Reporter interface {
	Generate(ctx context.Context, tmpDir string, records []frame.Record) (*report.Result, error)
}

// StageError records the state the pipeline halted in
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result contains what each executed stage produced
type Result struct {
	Visited    []State
	FrameCount int
	Sync       *storesync.Result
	Records    []frame.Record
	Report     *report.Result
}

// Service runs the stages in order
type Service struct {
	extractor  Extractor
	syncer     Syncer
	recognizer Recognizer
	reporter   Reporter
	output     io.Writer
	logger     *slog.Logger
}

// NewService creates a new pipeline service
func NewService(
	extractor Extractor,
	syncer Syncer,
	recognizer Recognizer,
	reporter Reporter,
	output io.Writer,
	logger *slog.Logger,
) *Service {
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		extractor:  extractor,
		syncer:     syncer,
		recognizer: recognizer,
		reporter:   reporter,
		output:     output,
		logger:     logger,
	}
}

// Run walks Init -> Extract -> Sync -> Recognize -> Report -> Done, skipping
// disabled stages. The report needs recognition output, so it is skipped
// whenever recognition is. The first failing stage stops the run.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{Visited: []State{StateInit}}

	if opts.DoExtract {
		result.Visited = append(result.Visited, StateExtract)
		if err := resetDir(opts.TmpDir); err != nil {
			return result, s.fail(StateExtract, err)
		}
		extracted, err := s.extractor.Extract(ctx, extract.Input{
			VideoPath:     opts.VideoPath,
			PeriodSeconds: opts.ExtractPeriodSeconds,
			TmpDir:        opts.TmpDir,
		})
		if err != nil {
			return result, s.fail(StateExtract, err)
		}
		result.FrameCount = extracted.FrameCount
	}

	if opts.DoUpload {
		result.Visited = append(result.Visited, StateSync)
		synced, err := s.syncer.Sync(ctx, opts.TmpDir)
		if err != nil {
			return result, s.fail(StateSync, err)
		}
		result.Sync = synced
	}

	if opts.DoRecognize {
		result.Visited = append(result.Visited, StateRecognize)
		records, err := s.recognizer.Recognize(ctx, recognize.Input{
			PeriodSeconds: opts.ExtractPeriodSeconds,
			SortByKey:     opts.SortListingByKey,
		})
		if err != nil {
			return result, s.fail(StateRecognize, err)
		}
		result.Records = records

		if opts.DoHTML {
			result.Visited = append(result.Visited, StateReport)
			generated, err := s.reporter.Generate(ctx, opts.TmpDir, records)
			if err != nil {
				return result, s.fail(StateReport, err)
			}
			result.Report = generated
		}
	}

	result.Visited = append(result.Visited, StateDone)
	s.logger.Debug("pipeline finished", "states", len(result.Visited))
	return result, nil
}

func (s *Service) fail(state State, err error) error {
	s.logger.Error("pipeline halted", "state", state.String(), "error", err)
	return &StageError{State: state, Err: err}
}

// resetDir removes dir and everything in it, then recreates it empty
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"video-labeler/domain/frame"
	"video-labeler/infrastructure/filesystem"
)

// FileChecker reports whether a file exists
type FileChecker interface {
	Exists(path string) bool
}

// Grabber implements frame.Grabber by running ffmpeg once per frame
type Grabber struct {
	ffmpegPath  string
	runner      CommandRunner
	fileChecker FileChecker
	logger      *slog.Logger
}

// GrabberOption is a functional option for configuring Grabber
type GrabberOption func(*Grabber)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) GrabberOption {
	return func(g *Grabber) {
		g.ffmpegPath = path
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) GrabberOption {
	return func(g *Grabber) {
		g.runner = runner
	}
}

// WithFileChecker sets a custom file checker (for testing)
func WithFileChecker(checker FileChecker) GrabberOption {
	return func(g *Grabber) {
		g.fileChecker = checker
	}
}

// WithLogger sets the logger used for command diagnostics
func WithLogger(logger *slog.Logger) GrabberOption {
	return func(g *Grabber) {
		g.logger = logger
	}
}

// NewGrabber creates a new FFmpeg-based frame grabber
func NewGrabber(opts ...GrabberOption) *Grabber {
	g := &Grabber{
		ffmpegPath:  "ffmpeg",
		runner:      &ExecCommandRunner{},
		fileChecker: filesystem.NewChecker(),
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Args returns the ffmpeg arguments that write the frame at offsetSeconds to outputPath
func Args(videoPath string, offsetSeconds int, outputPath string) []string {
	return []string{
		"-loglevel", "16", // errors only
		"-ss", frame.TimecodeString(offsetSeconds),
		"-i", videoPath,
		"-frames:v", "1",
		outputPath,
	}
}

// Grab implements frame.Grabber.
// A failed ffmpeg run or a missing output file both end extraction.
func (g *Grabber) Grab(ctx context.Context, videoPath string, offsetSeconds int, outputPath string) frame.Extraction {
	args := Args(videoPath, offsetSeconds, outputPath)
	g.logger.Debug("running ffmpeg", "path", g.ffmpegPath, "args", args)

	if err := g.runner.Run(ctx, g.ffmpegPath, args...); err != nil {
		code := exitCode(err)
		g.logger.Debug("ffmpeg exited unsuccessfully", "offset_seconds", offsetSeconds, "exit_code", code, "error", err)
		return frame.Extraction{Outcome: frame.ProcessError, Code: code}
	}

	if !g.fileChecker.Exists(outputPath) {
		return frame.Extraction{Outcome: frame.EndOfVideo}
	}

	return frame.Extraction{Outcome: frame.Success, Path: outputPath}
}

// VerifyInstalled checks that ffmpeg is available
func (g *Grabber) VerifyInstalled(ctx context.Context) error {
	_, err := g.runner.Output(ctx, g.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// exitCode extracts a process exit code, or -1 when the process never ran
func exitCode(err error) int {
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}

// Ensure Grabber implements frame.Grabber
var _ frame.Grabber = (*Grabber)(nil)

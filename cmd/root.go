package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"video-labeler/application/extract"
	"video-labeler/application/pipeline"
	"video-labeler/application/recognize"
	"video-labeler/application/report"
	"video-labeler/application/storesync"
	"video-labeler/domain/frame"
	"video-labeler/domain/labeling"
	"video-labeler/domain/storage"
	"video-labeler/infrastructure/config"
	"video-labeler/infrastructure/ffmpeg"
	"video-labeler/infrastructure/filesystem"
	"video-labeler/infrastructure/logging"
	"video-labeler/infrastructure/rekognition"
	"video-labeler/infrastructure/s3store"
	"video-labeler/infrastructure/vision"

	"github.com/spf13/cobra"
)

// RunFlags mirrors the root command's flags
type RunFlags struct {
	NoFrameExtract  bool
	NoUpload        bool
	NoRecognize     bool
	NoHTML          bool
	ExtractPeriod   int
	CredentialsPath string
	TmpDir          string
	OutputDir       string
	SortByKey       bool
	LogLevel        string
}

var rootFlags = RunFlags{}

var rootCmd = &cobra.Command{
	Use:   "video-labeler [options] <video>",
	Short: "Label video frames with a cloud image recognition service",
	Long: `video-labeler extracts a still frame from a video every few seconds,
uploads the frames to an S3 bucket, runs label detection on each frame
and writes an HTML/JSON report pairing frames with their labels.

Stages can be skipped individually. The report is built from recognition
results, so --no-recognize also skips the report.

Exits 0 after a completed run and 1 on any error, including --help.

Bucket, region and access keys are read from credentials.yml
(see credentials-sample.yml), with VIDEO_LABELER_* environment overrides.

Example:
  video-labeler --extract-period 5 recording.mp4
  video-labeler --no-frame-extract --no-upload recording.mp4`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runPipeline,
}

// UsageError marks a configuration or argument problem detected before any
// stage runs. It is reported with the usage text.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

func usageErrorf(format string, args ...interface{}) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	executed, err := rootCmd.ExecuteContextC(ctx)
	code := exitCode(executed, err, os.Stdout, os.Stderr)
	if code != 0 {
		stop()
		os.Exit(code)
	}
}

// exitCode reports err to the user and returns the process exit status.
// Usage errors print the message and usage on stdout; other errors go to
// stderr. Asking for help also exits 1.
func exitCode(executed *cobra.Command, err error, stdout, stderr io.Writer) int {
	if executed == nil {
		executed = rootCmd
	}

	if err == nil {
		if help := executed.Flags().Lookup("help"); help != nil && help.Changed {
			return 1
		}
		return 0
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintln(stdout, usageErr.Message)
		fmt.Fprint(stdout, executed.UsageString())
	} else {
		fmt.Fprintln(stderr, err)
	}
	return 1
}

func init() {
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &UsageError{Message: err.Error()}
	})

	flags := rootCmd.Flags()
	flags.BoolVar(&rootFlags.NoFrameExtract, "no-frame-extract", false, "Don't extract video frames")
	flags.BoolVar(&rootFlags.NoUpload, "no-upload", false, "Don't upload extracted video frames")
	flags.BoolVar(&rootFlags.NoRecognize, "no-recognize", false, "Don't run label detection (also skips the report)")
	flags.BoolVar(&rootFlags.NoHTML, "no-html", false, "Don't generate the HTML/JSON report")
	flags.IntVar(&rootFlags.ExtractPeriod, "extract-period", pipeline.DefaultExtractPeriod, "Extract a video frame every this many seconds")
	flags.StringVar(&rootFlags.TmpDir, "tmp-dir", pipeline.DefaultTmpDir, "Directory frames are extracted into")
	flags.StringVar(&rootFlags.OutputDir, "output-dir", report.DefaultOutputDir, "Directory the report is written to")
	flags.BoolVar(&rootFlags.SortByKey, "sort-by-key", false, "Sort the bucket listing by key before assigning frame times")

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&rootFlags.CredentialsPath, "credentials", config.DefaultPath, "Credentials file")
	persistent.StringVar(&rootFlags.LogLevel, "log-level", logging.DefaultLevel, "Diagnostic log level (debug, info, warn, error)")
}

func newLogger() *slog.Logger {
	return logging.NewLogger(rootFlags.LogLevel, os.Stderr)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger()

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Warn("ignoring .env", "error", err)
	}

	grabber := ffmpeg.NewGrabber(ffmpeg.WithLogger(logging.WithComponent(logger, "ffmpeg")))

	opts, cfg, err := PrepareRun(ctx, args, rootFlags, grabber, filesystem.NewChecker())
	if err != nil {
		return err
	}

	deps := PipelineDependencies{
		Grabber:   grabber,
		OutputDir: rootFlags.OutputDir,
	}

	if opts.DoUpload || opts.DoRecognize {
		store, err := s3store.NewStore(s3store.Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKeyID,
			SecretKey: cfg.SecretAccessKey,
			UseSSL:    !cfg.DisableSSL,
			Bucket:    cfg.BucketName,
		})
		if err != nil {
			return err
		}
		deps.Store = store
		logger.Debug("object store ready",
			"bucket", cfg.BucketName,
			"region", cfg.Region,
			"access_key", logging.SanitizeKey(cfg.AccessKeyID),
		)
	}

	if opts.DoRecognize {
		detector, err := newDetector(ctx, cfg, deps.Store)
		if err != nil {
			return err
		}
		if closer, ok := detector.(io.Closer); ok {
			defer closer.Close()
		}
		deps.Detector = detector
	}

	_, err = RunPipelineWithDependencies(ctx, deps, opts, os.Stdout, logger)
	return err
}

func newDetector(ctx context.Context, cfg *config.Config, store storage.ObjectStore) (labeling.Detector, error) {
	switch cfg.Provider() {
	case config.ProviderVision:
		return vision.NewDetector(ctx, cfg.GoogleCredentialsFile, store)
	default:
		return rekognition.NewDetector(rekognition.Config{
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		}), nil
	}
}

// Verifier checks that an external tool can be run
type Verifier interface {
	VerifyInstalled(ctx context.Context) error
}

// FileChecker reports on local files
type FileChecker interface {
	Exists(path string) bool
	Readable(path string) bool
}

// PrepareRun validates the arguments, flags and credentials in the order a
// run needs them and returns the resulting options. Every failure is a
// *UsageError.
func PrepareRun(
	ctx context.Context,
	args []string,
	flags RunFlags,
	verifier Verifier,
	checker FileChecker,
) (pipeline.Options, *config.Config, error) {
	var opts pipeline.Options

	if err := verifier.VerifyInstalled(ctx); err != nil {
		return opts, nil, usageErrorf("The ffmpeg executable is required")
	}
	if len(args) != 1 {
		return opts, nil, usageErrorf("Required video filename is missing")
	}
	if flags.ExtractPeriod <= 0 {
		return opts, nil, usageErrorf("A positive nonzero --extract-period is required.")
	}

	videoPath, err := filepath.Abs(args[0])
	if err != nil || !checker.Readable(videoPath) {
		return opts, nil, usageErrorf("Unable to open input video file")
	}

	credentialsPath := flags.CredentialsPath
	if credentialsPath == "" {
		credentialsPath = config.DefaultPath
	}
	if !checker.Exists(credentialsPath) {
		return opts, nil, usageErrorf("File %s does not exist. See credentials-sample.yml for a template.", credentialsPath)
	}

	cfg, err := config.Load(credentialsPath)
	if err != nil {
		return opts, nil, usageErrorf("Invalid credentials file %s: %v", credentialsPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return opts, nil, usageErrorf("Invalid credentials file %s: %v", credentialsPath, err)
	}

	opts = pipeline.DefaultOptions(videoPath)
	opts.ExtractPeriodSeconds = flags.ExtractPeriod
	opts.DoExtract = !flags.NoFrameExtract
	opts.DoUpload = !flags.NoUpload
	opts.DoRecognize = !flags.NoRecognize
	opts.DoHTML = !flags.NoHTML
	opts.SortListingByKey = flags.SortByKey
	if flags.TmpDir != "" {
		opts.TmpDir = flags.TmpDir
	}

	return opts, cfg, nil
}

// PipelineDependencies holds the collaborators a run uses. Store and Detector
// may be nil when the stages that need them are disabled.
type PipelineDependencies struct {
	Grabber   frame.Grabber
	Store     storage.ObjectStore
	Detector  labeling.Detector
	OutputDir string
}

// RunPipelineWithDependencies runs the pipeline with injected dependencies (for testing)
func RunPipelineWithDependencies(
	ctx context.Context,
	deps PipelineDependencies,
	opts pipeline.Options,
	output io.Writer,
	logger *slog.Logger,
) (*pipeline.Result, error) {
	if opts.DoUpload && deps.Store == nil {
		return nil, errors.New("upload enabled without an object store")
	}
	if opts.DoRecognize && (deps.Store == nil || deps.Detector == nil) {
		return nil, errors.New("recognition enabled without an object store and detector")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		syncer     pipeline.Syncer
		recognizer pipeline.Recognizer
	)
	if deps.Store != nil {
		syncer = storesync.NewService(deps.Store, output, logging.WithComponent(logger, "sync"))
		if deps.Detector != nil {
			recognizer = recognize.NewService(deps.Store, deps.Detector, output, logging.WithComponent(logger, "recognize"))
		}
	}

	service := pipeline.NewService(
		extract.NewService(deps.Grabber, output, logging.WithComponent(logger, "extract")),
		syncer,
		recognizer,
		report.NewService(deps.OutputDir, output, logging.WithComponent(logger, "report")),
		output,
		logger,
	)

	return service.Run(ctx, opts)
}

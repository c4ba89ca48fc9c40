package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"video-labeler/domain/frame"
)

// Service runs the frame extraction loop
type Service struct {
	grabber frame.Grabber
	output  io.Writer
	logger  *slog.Logger
}

// NewService creates a new extraction service
func NewService(grabber frame.Grabber, output io.Writer, logger *slog.Logger) *Service {
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		grabber: grabber,
		output:  output,
		logger:  logger,
	}
}

// Input contains the parameters for one extraction run
type Input struct {
	VideoPath     string
	PeriodSeconds int
	TmpDir        string
}

// Result summarizes an extraction run
type Result struct {
	FrameCount int
	Frames     []string // paths in extraction order
	Stop       frame.Extraction
}

// Extract grabs frames at offsets 0, period, 2*period, ... into TmpDir until the
// grabber reports anything other than success. Reaching that point is the normal
// end of the video and is not an error.
func (s *Service) Extract(ctx context.Context, input Input) (*Result, error) {
	if input.PeriodSeconds <= 0 {
		return nil, fmt.Errorf("extract period must be positive, got %d", input.PeriodSeconds)
	}

	fmt.Fprintf(s.output, "Extracting video frames...\n")

	result := &Result{}
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("frame extraction interrupted: %w", err)
		}

		offset := index * input.PeriodSeconds
		outputPath := frame.FramePath(input.TmpDir, index)
		fmt.Fprintf(s.output, "%s\r", frame.TimecodeString(offset))

		extraction := s.grabber.Grab(ctx, input.VideoPath, offset, outputPath)
		if extraction.Outcome != frame.Success {
			// a killed ffmpeg looks like a process error; it is not the end of the video
			if err := ctx.Err(); err != nil {
				return result, fmt.Errorf("frame extraction interrupted: %w", err)
			}
			s.logger.Debug("frame extraction stopped",
				"offset_seconds", offset,
				"outcome", extraction.Outcome.String(),
				"exit_code", extraction.Code)
			result.Stop = extraction
			break
		}

		result.Frames = append(result.Frames, extraction.Path)
		result.FrameCount++
	}

	fmt.Fprintf(s.output, "Extracted %d video frames\n", result.FrameCount)
	return result, nil
}

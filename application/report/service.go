package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"video-labeler/domain/frame"
)

const (
	// DefaultOutputDir is where reports are written unless overridden
	DefaultOutputDir = "output"

	JSONFilename = "index.json"
	HTMLFilename = "index.html"
)

// Service writes the report directory
type Service struct {
	outputDir string
	output    io.Writer
	logger    *slog.Logger
}

// NewService creates a report service writing into outputDir
func NewService(outputDir string, output io.Writer, logger *slog.Logger) *Service {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		outputDir: outputDir,
		output:    output,
		logger:    logger,
	}
}

// Result describes what was written
type Result struct {
	OutputDir    string
	JSONPath     string
	HTMLPath     string
	ImagesCopied int
}

// Generate recreates the output directory, copies the frame images from tmpDir
// into it, and writes index.json and index.html for records in the given order.
func (s *Service) Generate(ctx context.Context, tmpDir string, records []frame.Record) (*Result, error) {
	fmt.Fprintf(s.output, "Generating report in %s...\n", s.outputDir)

	if err := os.RemoveAll(s.outputDir); err != nil {
		return nil, fmt.Errorf("failed to remove output directory: %w", err)
	}
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	copied, err := s.copyFrames(ctx, tmpDir)
	if err != nil {
		return nil, err
	}

	result := &Result{
		OutputDir:    s.outputDir,
		JSONPath:     filepath.Join(s.outputDir, JSONFilename),
		HTMLPath:     filepath.Join(s.outputDir, HTMLFilename),
		ImagesCopied: copied,
	}

	if err := writeFile(result.JSONPath, func(w io.Writer) error { return WriteJSON(w, records) }); err != nil {
		return nil, err
	}
	if err := writeFile(result.HTMLPath, func(w io.Writer) error { return WriteHTML(w, records) }); err != nil {
		return nil, err
	}

	s.logger.Info("report written", "dir", s.outputDir, "frames", len(records), "images", copied)
	fmt.Fprintf(s.output, "Report written to %s\n", result.HTMLPath)
	return result, nil
}

// WriteJSON writes records as a tab-indented JSON array
func WriteJSON(w io.Writer, records []frame.Record) error {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, NewEntry(r))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode report JSON: %w", err)
	}
	return nil
}

// WriteHTML renders the HTML report page
func WriteHTML(w io.Writer, records []frame.Record) error {
	if err := pageTemplate.Execute(w, records); err != nil {
		return fmt.Errorf("failed to render report HTML: %w", err)
	}
	return nil
}

// copyFrames copies every frame image in tmpDir into the output directory
func (s *Service) copyFrames(ctx context.Context, tmpDir string) (int, error) {
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read frame directory %s: %w", tmpDir, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !frame.IsFrameFile(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return count, fmt.Errorf("report generation interrupted: %w", err)
		}
		src := filepath.Join(tmpDir, entry.Name())
		dst := filepath.Join(s.outputDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return count, fmt.Errorf("failed to copy %s: %w", entry.Name(), err)
		}
		count++
	}
	return count, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return writeFile(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// writeFile creates path and fills it with write, reporting close errors
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

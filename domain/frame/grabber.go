package frame

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// FilePrefix starts every frame filename and remote key
	FilePrefix = "img"

	// FileExtension is the image format frames are written in
	FileExtension = ".png"
)

// FrameFilename returns the zero-padded name for the nth frame, e.g. img00042.png.
// Lexicographic order of these names matches extraction order.
func FrameFilename(index int) string {
	return fmt.Sprintf("%s%05d%s", FilePrefix, index, FileExtension)
}

// FramePath joins FrameFilename onto dir
func FramePath(dir string, index int) string {
	return filepath.Join(dir, FrameFilename(index))
}

// IsFrameFile reports whether name looks like an extracted frame
func IsFrameFile(name string) bool {
	return strings.HasPrefix(name, FilePrefix) && strings.HasSuffix(name, FileExtension)
}

// Outcome classifies a single grab attempt
type Outcome int

const (
	// Success means the frame image was written
	Success Outcome = iota

	// EndOfVideo means the grabber ran cleanly but produced no image
	EndOfVideo

	// ProcessError means the extraction process exited unsuccessfully
	ProcessError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case EndOfVideo:
		return "end_of_video"
	case ProcessError:
		return "process_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Extraction is the result of grabbing one frame
type Extraction struct {
	Outcome Outcome
	Path    string // set on Success
	Code    int    // process exit code on ProcessError, -1 if the process never ran
}

// Grabber writes the video frame found at offsetSeconds to outputPath
type Grabber interface {
	Grab(ctx context.Context, videoPath string, offsetSeconds int, outputPath string) Extraction
}

package ffmpeg

import (
	"context"
	"errors"
	"strings"
	"testing"

	"video-labeler/domain/frame"
)

// exitError mimics *exec.ExitError for testing
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "exit status" }
func (e *exitError) ExitCode() int { return e.code }

// mockRunner records calls and fails for configured offsets
type mockRunner struct {
	calls     [][]string
	runErr    error
	outputErr error
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) error {
	m.calls = append(m.calls, append([]string{name}, args...))
	return m.runErr
}

func (m *mockRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if m.outputErr != nil {
		return nil, m.outputErr
	}
	return []byte("ffmpeg version 7.0"), nil
}

// mockFileChecker implements FileChecker for testing
type mockFileChecker struct {
	existingFiles map[string]bool
}

func (m *mockFileChecker) Exists(path string) bool {
	return m.existingFiles[path]
}

func TestArgs(t *testing.T) {
	got := Args("/videos/my clip.mp4", 3661, "/tmp/frames/img00042.png")
	want := []string{
		"-loglevel", "16",
		"-ss", "01:01:01.000",
		"-i", "/videos/my clip.mp4",
		"-frames:v", "1",
		"/tmp/frames/img00042.png",
	}

	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Args() = %v, want %v", got, want)
	}
}

func TestGrabber_Grab(t *testing.T) {
	const out = "/tmp/frames/img00000.png"

	tests := []struct {
		name        string
		runErr      error
		fileExists  bool
		wantOutcome frame.Outcome
		wantCode    int
	}{
		{
			name:        "frame written",
			fileExists:  true,
			wantOutcome: frame.Success,
		},
		{
			name:        "clean exit without output",
			fileExists:  false,
			wantOutcome: frame.EndOfVideo,
		},
		{
			name:        "non-zero exit",
			runErr:      &exitError{code: 1},
			wantOutcome: frame.ProcessError,
			wantCode:    1,
		},
		{
			name:        "process never started",
			runErr:      errors.New("executable file not found"),
			wantOutcome: frame.ProcessError,
			wantCode:    -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{runErr: tt.runErr}
			checker := &mockFileChecker{existingFiles: map[string]bool{out: tt.fileExists}}
			grabber := NewGrabber(
				WithFFmpegPath("/usr/local/bin/ffmpeg"),
				WithCommandRunner(runner),
				WithFileChecker(checker),
			)

			got := grabber.Grab(context.Background(), "clip.mp4", 20, out)

			if got.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %s, want %s", got.Outcome, tt.wantOutcome)
			}
			if tt.wantOutcome == frame.ProcessError && got.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", got.Code, tt.wantCode)
			}
			if tt.wantOutcome == frame.Success && got.Path != out {
				t.Errorf("Path = %q, want %q", got.Path, out)
			}

			if len(runner.calls) != 1 {
				t.Fatalf("expected 1 ffmpeg call, got %d", len(runner.calls))
			}
			if runner.calls[0][0] != "/usr/local/bin/ffmpeg" {
				t.Errorf("expected custom ffmpeg path, got %s", runner.calls[0][0])
			}
			if !strings.Contains(strings.Join(runner.calls[0], " "), "-ss 00:00:20.000") {
				t.Errorf("expected seek to 00:00:20.000, got %v", runner.calls[0])
			}
		})
	}
}

func TestGrabber_VerifyInstalled(t *testing.T) {
	t.Run("installed", func(t *testing.T) {
		runner := &mockRunner{}
		grabber := NewGrabber(WithCommandRunner(runner))

		if err := grabber.VerifyInstalled(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if strings.Join(runner.calls[0], " ") != "ffmpeg -version" {
			t.Errorf("unexpected call %v", runner.calls[0])
		}
	})

	t.Run("missing", func(t *testing.T) {
		grabber := NewGrabber(WithCommandRunner(&mockRunner{outputErr: errors.New("not found")}))

		err := grabber.VerifyInstalled(context.Background())
		if err == nil || !strings.Contains(err.Error(), "ffmpeg not found") {
			t.Errorf("expected ffmpeg not found error, got %v", err)
		}
	})
}

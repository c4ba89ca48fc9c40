package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"video-labeler/domain/frame"
)

// stubGrabber succeeds for offsets below limit, writing a small file, and fails after
type stubGrabber struct {
	limit   int
	failAs  frame.Outcome
	offsets []int
}

func (g *stubGrabber) Grab(ctx context.Context, videoPath string, offsetSeconds int, outputPath string) frame.Extraction {
	g.offsets = append(g.offsets, offsetSeconds)
	if offsetSeconds >= g.limit {
		if g.failAs == frame.ProcessError {
			return frame.Extraction{Outcome: frame.ProcessError, Code: 1}
		}
		return frame.Extraction{Outcome: frame.EndOfVideo}
	}
	if err := os.WriteFile(outputPath, []byte("png"), 0644); err != nil {
		return frame.Extraction{Outcome: frame.ProcessError, Code: -1}
	}
	return frame.Extraction{Outcome: frame.Success, Path: outputPath}
}

func TestService_Extract_StopsPastEndOfVideo(t *testing.T) {
	tests := []struct {
		name   string
		failAs frame.Outcome
	}{
		{name: "process error past end", failAs: frame.ProcessError},
		{name: "missing output past end", failAs: frame.EndOfVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			grabber := &stubGrabber{limit: 30, failAs: tt.failAs}
			output := &bytes.Buffer{}
			service := NewService(grabber, output, nil)

			result, err := service.Extract(context.Background(), Input{
				VideoPath:     "/videos/clip.mp4",
				PeriodSeconds: 10,
				TmpDir:        tmpDir,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.FrameCount != 3 {
				t.Errorf("expected 3 frames, got %d", result.FrameCount)
			}
			if result.Stop.Outcome != tt.failAs {
				t.Errorf("expected stop outcome %s, got %s", tt.failAs, result.Stop.Outcome)
			}

			wantOffsets := []int{0, 10, 20, 30}
			if len(grabber.offsets) != len(wantOffsets) {
				t.Fatalf("expected offsets %v, got %v", wantOffsets, grabber.offsets)
			}
			for i, want := range wantOffsets {
				if grabber.offsets[i] != want {
					t.Errorf("offset[%d] = %d, want %d", i, grabber.offsets[i], want)
				}
			}

			entries, err := os.ReadDir(tmpDir)
			if err != nil {
				t.Fatalf("failed to read tmp dir: %v", err)
			}
			var names []string
			for _, e := range entries {
				names = append(names, e.Name())
			}
			want := []string{"img00000.png", "img00001.png", "img00002.png"}
			if strings.Join(names, ",") != strings.Join(want, ",") {
				t.Errorf("expected files %v, got %v", want, names)
			}

			if !strings.Contains(output.String(), "Extracted 3 video frames") {
				t.Errorf("expected frame count in output, got:\n%s", output.String())
			}
		})
	}
}

func TestService_Extract_FramePathsInOrder(t *testing.T) {
	tmpDir := t.TempDir()
	service := NewService(&stubGrabber{limit: 25}, nil, nil)

	result, err := service.Extract(context.Background(), Input{
		VideoPath:     "clip.mp4",
		PeriodSeconds: 5,
		TmpDir:        tmpDir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(result.Frames))
	}
	if result.Frames[4] != filepath.Join(tmpDir, "img00004.png") {
		t.Errorf("unexpected last frame path %s", result.Frames[4])
	}
}

func TestService_Extract_NoFrames(t *testing.T) {
	service := NewService(&stubGrabber{limit: 0}, nil, nil)

	result, err := service.Extract(context.Background(), Input{
		VideoPath:     "empty.mp4",
		PeriodSeconds: 10,
		TmpDir:        t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FrameCount != 0 {
		t.Errorf("expected 0 frames, got %d", result.FrameCount)
	}
}

func TestService_Extract_InvalidPeriod(t *testing.T) {
	service := NewService(&stubGrabber{limit: 30}, nil, nil)

	_, err := service.Extract(context.Background(), Input{
		VideoPath:     "clip.mp4",
		PeriodSeconds: 0,
		TmpDir:        t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for zero period")
	}
}

func TestService_Extract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service := NewService(&stubGrabber{limit: 1000}, nil, nil)
	_, err := service.Extract(ctx, Input{
		VideoPath:     "clip.mp4",
		PeriodSeconds: 10,
		TmpDir:        t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

// cancellingGrabber writes frames until cancelAt, then cancels the run and
// reports the killed process the way ffmpeg does after a signal
type cancellingGrabber struct {
	cancelAt int
	cancel   context.CancelFunc
}

func (g *cancellingGrabber) Grab(ctx context.Context, videoPath string, offsetSeconds int, outputPath string) frame.Extraction {
	if offsetSeconds >= g.cancelAt {
		g.cancel()
		return frame.Extraction{Outcome: frame.ProcessError, Code: -1}
	}
	if err := os.WriteFile(outputPath, []byte("png"), 0644); err != nil {
		return frame.Extraction{Outcome: frame.ProcessError, Code: -1}
	}
	return frame.Extraction{Outcome: frame.Success, Path: outputPath}
}

func TestService_Extract_CancelledDuringGrab(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	service := NewService(&cancellingGrabber{cancelAt: 20, cancel: cancel}, &out, nil)
	result, err := service.Extract(ctx, Input{
		VideoPath:     "clip.mp4",
		PeriodSeconds: 10,
		TmpDir:        t.TempDir(),
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !strings.Contains(err.Error(), "frame extraction interrupted") {
		t.Errorf("unexpected error message %q", err.Error())
	}
	if result == nil || result.FrameCount != 2 {
		t.Errorf("expected 2 frames before the interrupt, got %+v", result)
	}
	if strings.Contains(out.String(), "Extracted") {
		t.Errorf("interrupted run should not report completion: %q", out.String())
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"video-labeler/domain/frame"
	"video-labeler/domain/labeling"
	"video-labeler/domain/storage"
)

// stubGrabber writes a fake frame for every offset below lastOffset
type stubGrabber struct {
	lastOffset int
	offsets    []int
}

func (g *stubGrabber) Grab(ctx context.Context, videoPath string, offsetSeconds int, outputPath string) frame.Extraction {
	g.offsets = append(g.offsets, offsetSeconds)
	if offsetSeconds >= g.lastOffset {
		return frame.Extraction{Outcome: frame.ProcessError, Code: 1}
	}
	content := fmt.Sprintf("frame@%d", offsetSeconds)
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return frame.Extraction{Outcome: frame.ProcessError, Code: -1}
	}
	return frame.Extraction{Outcome: frame.Success, Path: outputPath}
}

// memoryStore implements storage.ObjectStore in memory
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Bucket() string { return "frames-bucket" }

func (m *memoryStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	result := make([]storage.ObjectInfo, 0, len(keys))
	for _, k := range keys {
		result = append(result, storage.ObjectInfo{Key: k, Size: int64(len(m.objects[k]))})
	}
	return result, nil
}

func (m *memoryStore) PutFile(ctx context.Context, key, localPath, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// cannedDetector returns the same labels for every frame
type cannedDetector struct {
	labels []frame.Label
	keys   []string
}

func (d *cannedDetector) DetectLabels(ctx context.Context, req labeling.Request) ([]frame.Label, error) {
	d.keys = append(d.keys, req.Key)
	return d.labels, nil
}

// fakeVerifier reports ffmpeg as present or missing
type fakeVerifier struct {
	err error
}

func (v *fakeVerifier) VerifyInstalled(ctx context.Context) error {
	return v.err
}

// fakeChecker answers from sets of known paths
type fakeChecker struct {
	existing map[string]bool
	readable map[string]bool
}

func (c *fakeChecker) Exists(path string) bool {
	return c.existing[path]
}

func (c *fakeChecker) Readable(path string) bool {
	return c.readable[path]
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

package storesync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"video-labeler/domain/frame"
	"video-labeler/domain/storage"
)

// Service replaces the frames held in remote storage with the local ones
type Service struct {
	store  storage.ObjectStore
	output io.Writer
	logger *slog.Logger
}

// NewService creates a new sync service
func NewService(store storage.ObjectStore, output io.Writer, logger *slog.Logger) *Service {
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:  store,
		output: output,
		logger: logger,
	}
}

// Result lists the keys touched by a sync
type Result struct {
	Deleted  []string
	Uploaded []string
}

// Sync deletes stale frames from the bucket and uploads every frame found in tmpDir.
// The first failed delete or upload aborts the sync.
func (s *Service) Sync(ctx context.Context, tmpDir string) (*Result, error) {
	result := &Result{}

	deleted, err := s.RemoveRemoteFrames(ctx)
	result.Deleted = deleted
	if err != nil {
		return result, err
	}

	uploaded, err := s.UploadFrames(ctx, tmpDir)
	result.Uploaded = uploaded
	if err != nil {
		return result, err
	}

	return result, nil
}

// RemoveRemoteFrames deletes every object whose key carries the frame prefix
func (s *Service) RemoveRemoteFrames(ctx context.Context) ([]string, error) {
	fmt.Fprintf(s.output, "Cleaning up stale objects in %s...\n", s.store.Bucket())

	objects, err := s.store.List(ctx, frame.FilePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote frames: %w", err)
	}

	var deleted []string
	for _, obj := range objects {
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			return deleted, fmt.Errorf("failed to delete %s: %w", obj.Key, err)
		}
		s.logger.Debug("deleted remote frame", "key", obj.Key)
		deleted = append(deleted, obj.Key)
	}
	return deleted, nil
}

// UploadFrames uploads frame images from tmpDir using the filename as the key.
// Files are visited in directory order; anything that is not a frame is skipped.
func (s *Service) UploadFrames(ctx context.Context, tmpDir string) ([]string, error) {
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory %s: %w", tmpDir, err)
	}

	var uploaded []string
	for _, entry := range entries {
		if entry.IsDir() || !frame.IsFrameFile(entry.Name()) {
			continue
		}

		name := entry.Name()
		fmt.Fprintf(s.output, "Uploading %s...\n", name)
		if err := s.store.PutFile(ctx, name, filepath.Join(tmpDir, name), storage.ContentTypePNG); err != nil {
			return uploaded, fmt.Errorf("failed to upload %s: %w", name, err)
		}
		uploaded = append(uploaded, name)
	}

	s.logger.Info("frames uploaded", "bucket", s.store.Bucket(), "count", len(uploaded))
	return uploaded, nil
}

package recognize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"video-labeler/domain/frame"
	"video-labeler/domain/labeling"
	"video-labeler/domain/storage"
)

// Service labels every object in the bucket and builds frame records
type Service struct {
	store    storage.ObjectStore
	detector labeling.Detector
	output   io.Writer
	logger   *slog.Logger
}

// NewService creates a new recognition service
func NewService(store storage.ObjectStore, detector labeling.Detector, output io.Writer, logger *slog.Logger) *Service {
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:    store,
		detector: detector,
		output:   output,
		logger:   logger,
	}
}

// Input contains the parameters for a recognition run
type Input struct {
	PeriodSeconds int

	// SortByKey orders the listing by key before offsets are assigned.
	// Without it offsets follow whatever order the store lists objects in.
	SortByKey bool
}

// Recognize lists the bucket and calls the label detector once per object.
// Offsets are not read from the objects: the nth listed object is assumed to be
// the nth extracted frame and gets n*PeriodSeconds.
func (s *Service) Recognize(ctx context.Context, input Input) ([]frame.Record, error) {
	objects, err := s.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in %s: %w", s.store.Bucket(), err)
	}

	if input.SortByKey {
		sort.SliceStable(objects, func(i, j int) bool {
			return objects[i].Key < objects[j].Key
		})
	}

	records := make([]frame.Record, 0, len(objects))
	seconds := 0
	for _, obj := range objects {
		labels, err := s.detector.DetectLabels(ctx, labeling.NewRequest(s.store.Bucket(), obj.Key))
		if err != nil {
			return records, fmt.Errorf("failed to detect labels for %s: %w", obj.Key, err)
		}

		record := frame.NewRecord(obj.Key, seconds, labels)
		fmt.Fprintf(s.output, "%s @ %s : %s\n", record.Filename, record.Time(), record.LabelSummary)
		s.logger.Debug("labels detected", "key", obj.Key, "offset_seconds", seconds, "count", len(labels))

		records = append(records, record)
		seconds += input.PeriodSeconds
	}

	return records, nil
}

package labeling

import (
	"context"
	"errors"

	"video-labeler/domain/frame"
)

const (
	// DefaultMaxLabels caps the labels returned per frame
	DefaultMaxLabels = 20

	// DefaultMinConfidence is the lowest confidence percentage reported
	DefaultMinConfidence = 50
)

// ErrNoLabels is returned by detectors whose service response carried no label list
var ErrNoLabels = errors.New("label detection returned no label list")

// Request identifies a stored image to label
type Request struct {
	Bucket        string
	Key           string
	MaxLabels     int
	MinConfidence float64
}

// NewRequest creates a request using the default limits
func NewRequest(bucket, key string) Request {
	return Request{
		Bucket:        bucket,
		Key:           key,
		MaxLabels:     DefaultMaxLabels,
		MinConfidence: DefaultMinConfidence,
	}
}

// Detector defines the interface for an image labeling service
type Detector interface {
	DetectLabels(ctx context.Context, req Request) ([]frame.Label, error)
}

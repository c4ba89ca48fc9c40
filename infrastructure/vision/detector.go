package vision

import (
	"context"
	"fmt"
	"os"

	"video-labeler/domain/frame"
	"video-labeler/domain/labeling"
	"video-labeler/domain/storage"

	visionapi "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// AnnotateAPI defines the Vision operations the detector uses
// This allows mocking the Google API in tests
type AnnotateAPI interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// Detector implements labeling.Detector with Google Cloud Vision.
// Vision cannot read S3 objects, so frame bytes are fetched from the store first.
type Detector struct {
	api   AnnotateAPI
	store storage.ObjectStore
}

// Option is a functional option for configuring Detector
type Option func(*Detector)

// WithAPI sets a custom Vision API (for testing)
func WithAPI(api AnnotateAPI) Option {
	return func(d *Detector) {
		d.api = api
	}
}

// NewDetector creates a Vision detector. credentialsFile is a service account
// JSON key; when empty, application default credentials are used.
func NewDetector(ctx context.Context, credentialsFile string, store storage.ObjectStore, opts ...Option) (*Detector, error) {
	d := &Detector{store: store}
	for _, opt := range opts {
		opt(d)
	}

	if d.api == nil {
		clientOpts, err := clientOptions(ctx, credentialsFile)
		if err != nil {
			return nil, err
		}
		client, err := visionapi.NewImageAnnotatorClient(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create vision client: %w", err)
		}
		d.api = client
	}

	return d, nil
}

func clientOptions(ctx context.Context, credentialsFile string) ([]option.ClientOption, error) {
	if credentialsFile == "" {
		return nil, nil
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}

	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// DetectLabels implements labeling.Detector
func (d *Detector) DetectLabels(ctx context.Context, req labeling.Request) ([]frame.Label, error) {
	content, err := d.store.Get(ctx, req.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s for vision: %w", req.Key, err)
	}

	resp, err := d.api.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: int32(req.MaxLabels)},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision annotate: %w", err)
	}
	if resp == nil || len(resp.GetResponses()) == 0 {
		return nil, labeling.ErrNoLabels
	}

	annotated := resp.GetResponses()[0]
	if msg := annotated.GetError().GetMessage(); msg != "" {
		return nil, fmt.Errorf("vision annotate %s: %s", req.Key, msg)
	}

	labels := make([]frame.Label, 0, len(annotated.GetLabelAnnotations()))
	for _, a := range annotated.GetLabelAnnotations() {
		percent := float64(a.GetScore()) * 100
		if percent < req.MinConfidence {
			continue
		}
		labels = append(labels, frame.Label{
			Name:              a.GetDescription(),
			ConfidencePercent: frame.TruncatePercent(percent),
		})
	}
	return labels, nil
}

// Close releases the underlying client
func (d *Detector) Close() error {
	return d.api.Close()
}

// Ensure Detector implements labeling.Detector
var _ labeling.Detector = (*Detector)(nil)

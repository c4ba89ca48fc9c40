package rekognition

import (
	"context"
	"fmt"

	"video-labeler/domain/frame"
	"video-labeler/domain/labeling"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// DetectLabelsAPI defines the Rekognition operation the detector uses
// This allows mocking the AWS API in tests
type DetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Config contains AWS settings for the detector
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Detector implements labeling.Detector with AWS Rekognition, passing frames
// by S3 object reference
type Detector struct {
	api DetectLabelsAPI
}

// Option is a functional option for configuring Detector
type Option func(*Detector)

// WithAPI sets a custom Rekognition API (for testing)
func WithAPI(api DetectLabelsAPI) Option {
	return func(d *Detector) {
		d.api = api
	}
}

// NewDetector creates a Rekognition detector from explicit credentials.
// Shared AWS config files and environment are not consulted.
func NewDetector(cfg Config, opts ...Option) *Detector {
	d := &Detector{}
	for _, opt := range opts {
		opt(d)
	}

	if d.api == nil {
		awsCfg := aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
		d.api = rekognition.NewFromConfig(awsCfg, func(o *rekognition.Options) {
			o.Retryer = aws.NopRetryer{}
		})
	}

	return d
}

// DetectLabels implements labeling.Detector
func (d *Detector) DetectLabels(ctx context.Context, req labeling.Request) ([]frame.Label, error) {
	out, err := d.api.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(req.Bucket),
				Name:   aws.String(req.Key),
			},
		},
		MaxLabels:     aws.Int32(int32(req.MaxLabels)),
		MinConfidence: aws.Float32(float32(req.MinConfidence)),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect labels: %w", err)
	}
	if out == nil || out.Labels == nil {
		return nil, labeling.ErrNoLabels
	}

	labels := make([]frame.Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		labels = append(labels, frame.Label{
			Name:              aws.ToString(l.Name),
			ConfidencePercent: frame.TruncatePercent(float64(aws.ToFloat32(l.Confidence))),
		})
	}
	return labels, nil
}

// Ensure Detector implements labeling.Detector
var _ labeling.Detector = (*Detector)(nil)

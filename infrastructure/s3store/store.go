package s3store

import (
	"context"
	"fmt"
	"io"

	"video-labeler/domain/storage"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultEndpoint is the AWS S3 endpoint; the region picks the regional host
const DefaultEndpoint = "s3.amazonaws.com"

// BucketAPI defines the object storage operations the store relies on
// This allows mocking the S3 API in tests
type BucketAPI interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]miniogo.ObjectInfo, error)
	FPutObject(ctx context.Context, bucket, key, localPath, contentType string) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	RemoveObject(ctx context.Context, bucket, key string) error
}

// MinioBucketAPI is the production implementation using minio-go
type MinioBucketAPI struct {
	client *miniogo.Client
}

// ListObjects drains the listing channel, following continuation pages
func (a *MinioBucketAPI) ListObjects(ctx context.Context, bucket, prefix string) ([]miniogo.ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result []miniogo.ObjectInfo
	for obj := range a.client.ListObjects(ctx, bucket, miniogo.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		result = append(result, obj)
	}
	return result, nil
}

// FPutObject uploads a whole local file
func (a *MinioBucketAPI) FPutObject(ctx context.Context, bucket, key, localPath, contentType string) error {
	_, err := a.client.FPutObject(ctx, bucket, key, localPath, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// GetObject reads the whole object body
func (a *MinioBucketAPI) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

// RemoveObject deletes one object
func (a *MinioBucketAPI) RemoveObject(ctx context.Context, bucket, key string) error {
	return a.client.RemoveObject(ctx, bucket, key, miniogo.RemoveObjectOptions{})
}

// Config contains the connection settings for a bucket
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// Store implements storage.ObjectStore on an S3-compatible service
type Store struct {
	api    BucketAPI
	bucket string
}

// Option is a functional option for configuring Store
type Option func(*Store)

// WithBucketAPI sets a custom bucket API (for testing)
func WithBucketAPI(api BucketAPI) Option {
	return func(s *Store) {
		s.api = api
	}
}

// NewStore creates a store for cfg.Bucket.
// If no BucketAPI option is given, a minio-go client is created from cfg.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	s := &Store{bucket: cfg.Bucket}
	for _, opt := range opts {
		opt(s)
	}

	if s.api == nil {
		api, err := newMinioBucketAPI(cfg)
		if err != nil {
			return nil, err
		}
		s.api = api
	}

	return s, nil
}

func newMinioBucketAPI(cfg Config) (*MinioBucketAPI, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	client, err := miniogo.New(endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &MinioBucketAPI{client: client}, nil
}

// Bucket implements storage.ObjectStore
func (s *Store) Bucket() string {
	return s.bucket
}

// List implements storage.ObjectStore
func (s *Store) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	objects, err := s.api.ListObjects(ctx, s.bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	result := make([]storage.ObjectInfo, 0, len(objects))
	for _, obj := range objects {
		result = append(result, storage.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return result, nil
}

// PutFile implements storage.ObjectStore
func (s *Store) PutFile(ctx context.Context, key, localPath, contentType string) error {
	if err := s.api.FPutObject(ctx, s.bucket, key, localPath, contentType); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Get implements storage.ObjectStore
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.api.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

// Delete implements storage.ObjectStore
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.api.RemoveObject(ctx, s.bucket, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Ensure Store implements storage.ObjectStore
var _ storage.ObjectStore = (*Store)(nil)

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cafe_backoffice/internal/config"
	"cafe_backoffice/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// MaxImageSize is the upload cap for product images.
const MaxImageSize int64 = 10 << 20

var (
	ErrUnsupportedImageType = errors.New("unsupported image type")
	ErrImageTooLarge        = errors.New("image exceeds the 10MB limit")
	ErrEmptyImage           = errors.New("image is empty")
	ErrInvalidBucketName    = errors.New("invalid bucket name")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Bucket describes a storage bucket.
type Bucket struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// S3ImageStore stores product images in an S3-compatible bucket.
type S3ImageStore struct {
	client    S3API
	bucket    string
	region    string
	publicURL string
}

// NewS3Client builds an S3 client for cfg. A non-empty cfg.URL targets an
// S3-compatible endpoint with path-style addressing.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.URL != "" {
			o.BaseEndpoint = aws.String(strings.TrimRight(cfg.URL, "/"))
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3ImageStore wires a store around client.
func NewS3ImageStore(client S3API, cfg config.StorageConfig) *S3ImageStore {
	return &S3ImageStore{
		client:    client,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		publicURL: publicBase(cfg),
	}
}

func publicBase(cfg config.StorageConfig) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.URL != "":
		return strings.TrimRight(cfg.URL, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// ValidateImage checks the declared content type and size of an upload.
func ValidateImage(contentType string, size int64) error {
	if size <= 0 {
		return ErrEmptyImage
	}
	if size > MaxImageSize {
		return fmt.Errorf("%w: %d bytes", ErrImageTooLarge, size)
	}
	if _, ok := allowedImageTypes[normalizeContentType(contentType)]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedImageType, contentType)
	}
	return nil
}

func normalizeContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// ProductImageKey builds products/<id>/<uuid><ext>. The extension follows the
// filename when present, else the content type.
func ProductImageKey(productID int64, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = allowedImageTypes[normalizeContentType(contentType)]
	}
	return fmt.Sprintf("products/%d/%s%s", productID, uuid.NewString(), ext)
}

// Upload stores the object and returns its public URL.
func (s *S3ImageStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(normalizeContentType(contentType)),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// Remove deletes the object behind a public URL. Placeholder and foreign URLs
// are skipped and reported as not removed.
func (s *S3ImageStore) Remove(ctx context.Context, publicURL string) (bool, error) {
	key, ok := s.KeyFromURL(publicURL)
	if !ok {
		return false, nil
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return false, fmt.Errorf("removing %s: %w", key, err)
	}
	return true, nil
}

// PublicURL returns the URL under which key is served.
func (s *S3ImageStore) PublicURL(key string) string {
	return s.publicURL + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL extracts the object key from a URL this store produced.
func (s *S3ImageStore) KeyFromURL(publicURL string) (string, bool) {
	if publicURL == "" || IsPlaceholder(publicURL) {
		return "", false
	}
	prefix := s.publicURL + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(publicURL, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" {
		return "", false
	}
	return key, true
}

// IsPlaceholder reports whether the URL points at a stock placeholder image.
func IsPlaceholder(u string) bool {
	return strings.Contains(strings.ToLower(u), "placeholder")
}

// Bucket returns the configured image bucket.
func (s *S3ImageStore) Bucket() string {
	return s.bucket
}

func (s *S3ImageStore) ListBuckets(ctx context.Context) ([]Bucket, error) {
	out, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	buckets := make([]Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		bucket := Bucket{Name: aws.ToString(b.Name)}
		if b.CreationDate != nil {
			bucket.CreatedAt = b.CreationDate.UTC().Format("2006-01-02T15:04:05Z")
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

func (s *S3ImageStore) CreateBucket(ctx context.Context, name string) error {
	if err := validateBucketName(name); err != nil {
		return err
	}
	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("creating bucket %s: %w", name, err)
	}
	return nil
}

func (s *S3ImageStore) DeleteBucket(ctx context.Context, name string) error {
	if err := validateBucketName(name); err != nil {
		return err
	}
	if _, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)}); err != nil {
		return fmt.Errorf("deleting bucket %s: %w", name, err)
	}
	return nil
}

// EnsureBucket creates the image bucket when it does not exist yet.
func (s *S3ImageStore) EnsureBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		return nil
	}
	if err := s.CreateBucket(ctx, s.bucket); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return err
	}
	utils.LogInfo("Created image bucket", map[string]interface{}{"bucket": s.bucket})
	return nil
}

func validateBucketName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return fmt.Errorf("%w: %q must be 3-63 characters", ErrInvalidBucketName, name)
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '.') {
			return fmt.Errorf("%w: %q", ErrInvalidBucketName, name)
		}
	}
	return nil
}

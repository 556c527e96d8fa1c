package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/storepos/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Archive keeps rendered receipts. Save returns where the copy landed.
type Archive interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// NewArchive picks the archive backend from storage configuration
func NewArchive(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Archive, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "filesystem":
		return NewFilesystemArchive(cfg.BasePath, logger)
	case "s3":
		a, err := NewS3Archive(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := a.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// ---------------------------------------------------------------------------
// Filesystem
// ---------------------------------------------------------------------------

// FilesystemArchive writes receipts under a base directory
type FilesystemArchive struct {
	basePath string
	logger   *zap.Logger
}

// NewFilesystemArchive creates basePath if needed. Default ./data/receipts.
func NewFilesystemArchive(basePath string, logger *zap.Logger) (*FilesystemArchive, error) {
	if basePath == "" {
		basePath = "./data/receipts"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			fmt.Sprintf("failed to create storage directory: %s", basePath), err)
	}
	return &FilesystemArchive{basePath: basePath, logger: logger}, nil
}

// Save writes data to basePath/key through a temp file and rename
func (a *FilesystemArchive) Save(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	path, err := a.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to create directory", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to write receipt", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", NewRenderError(ErrCodeStorageFailed, "failed to move receipt into place", err)
	}

	a.logger.Debug("Receipt archived", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// resolve rejects keys that would escape basePath
func (a *FilesystemArchive) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", NewRenderError(ErrCodeStorageFailed, "storage key is required", nil)
	}
	return filepath.Join(a.basePath, clean), nil
}

// ---------------------------------------------------------------------------
// S3
// ---------------------------------------------------------------------------

// S3Archive stores receipts in any S3-compatible bucket (AWS S3, MinIO, RustFS)
type S3Archive struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewS3Archive builds a client with static credentials
func NewS3Archive(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage access key and secret key are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &S3Archive{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (a *S3Archive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating receipt bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Save uploads data under key and returns its s3:// location
func (a *S3Archive) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", NewRenderError(ErrCodeStorageFailed, "storage key is required", nil)
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to upload receipt", err)
	}
	return "s3://" + a.bucket + "/" + key, nil
}

var (
	_ Archive = (*FilesystemArchive)(nil)
	_ Archive = (*S3Archive)(nil)
)

package storage

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dreamhome/web/internal/config"
)

const presignExpiry = 15 * time.Minute

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// IS3Storage defines the interface for property image storage.
type IS3Storage interface {
	// GeneratePresignedPutURL returns an upload URL and the object key it targets.
	GeneratePresignedPutURL(ctx context.Context, propertyKey, filename, contentType string) (string, string, error)
	PublicURL(key string) string
}

// s3Storage implements IS3Storage.
type s3Storage struct {
	bucket        string
	publicBase    string
	presignClient *s3.PresignClient
	logger        *zap.Logger
}

// NewS3Client builds an S3 client from the configured static credentials.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(ctx,
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// NewS3Storage creates a new S3 storage service on top of client.
func NewS3Storage(cfg *config.Config, client *s3.Client, logger *zap.Logger) IS3Storage {
	publicBase := cfg.ImageBaseS3URL
	if publicBase == "" && cfg.AwsS3Bucket != "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.AwsS3Bucket, cfg.AwsRegion)
	}
	return &s3Storage{
		bucket:        cfg.AwsS3Bucket,
		publicBase:    strings.TrimRight(publicBase, "/"),
		presignClient: s3.NewPresignClient(client),
		logger:        logger,
	}
}

// ObjectKey builds properties/<propertyKey>/<uuid>_<filename> with the
// filename reduced to a safe base name.
func ObjectKey(propertyKey, filename string) string {
	if strings.TrimSpace(propertyKey) == "" {
		propertyKey = "new"
	}
	base := unsafeFilenameChars.ReplaceAllString(path.Base(strings.ReplaceAll(filename, "\\", "/")), "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("properties/%s/%s_%s", unsafeFilenameChars.ReplaceAllString(propertyKey, "_"), uuid.NewString(), base)
}

// GeneratePresignedPutURL creates a pre-signed URL for uploading an object.
func (s *s3Storage) GeneratePresignedPutURL(ctx context.Context, propertyKey, filename, contentType string) (string, string, error) {
	if s.bucket == "" {
		return "", "", fmt.Errorf("image storage is not configured")
	}
	objectKey := ObjectKey(propertyKey, filename)

	presignedReq, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", objectKey, err)
	}

	s.logger.Debug("generated presigned upload URL", zap.String("key", objectKey))
	return presignedReq.URL, objectKey, nil
}

// PublicURL is the address an uploaded object is served from.
func (s *s3Storage) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimLeft(key, "/")
}

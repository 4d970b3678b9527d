package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/aimoney/aimoney-api/config"
	"github.com/aimoney/aimoney-api/logger"
	"go.uber.org/zap"
)

// S3Interface defines the interface for S3 operations
type S3Interface interface {
	UploadFile(ctx context.Context, key, contentType string, body io.Reader) error
	PublicURL(key string) string
}

// S3Service stores public blobs in a bucket
type S3Service struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3Service builds an S3 client from the application config
func NewS3Service(ctx context.Context, cfg *appConfig.Config) (*S3Service, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}
	// fall back to the default credential chain (instance role, shared profile)
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	baseURL := cfg.S3PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.AWSS3Bucket, cfg.AWSRegion)
	}

	return &S3Service{
		client:        s3.NewFromConfig(awsConfig),
		bucket:        cfg.AWSS3Bucket,
		publicBaseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// UploadFile puts the object under key
func (s *S3Service) UploadFile(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	logger.FromCtx(ctx).Info("Uploaded object to S3", zap.String("bucket", s.bucket), zap.String("key", key))
	return nil
}

// PublicURL returns the public address of an object
func (s *S3Service) PublicURL(key string) string {
	return s.publicBaseURL + "/" + key
}

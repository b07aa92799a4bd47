// Package storage reads objects from S3-compatible storage. The schema
// loader uses it to fetch relationship and vertex schema files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// ErrDisabled is returned by every call on a service built without a bucket.
var ErrDisabled = errors.New("storage service not enabled")

// Config holds storage connection settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
}

// Service provides read access to S3-compatible storage
type Service struct {
	client *s3.Client
	log    *slog.Logger
}

// NewService creates a storage service. With an empty endpoint the AWS
// default endpoint resolution applies; with empty keys the default
// credential chain does.
func NewService(ctx context.Context, cfg Config, log *slog.Logger) (*Service, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing is required for MinIO and other custom endpoints
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log = log.With(logger.Scope("storage"))
	log.Info("storage service initialized",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("region", region),
	)
	return &Service{client: client, log: log}, nil
}

// Enabled reports whether the service has a client
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil
}

// ListKeys returns every object key under prefix, following pagination.
func (s *Service) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			s.log.Error("failed to list objects",
				slog.String("bucket", bucket),
				slog.String("prefix", prefix),
				logger.Error(err),
			)
			return nil, fmt.Errorf("list failed: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil && !strings.HasSuffix(*obj.Key, "/") {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

// GetObject downloads an object into memory
func (s *Service) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("object %s/%s does not exist: %w", bucket, key, err)
		}
		s.log.Error("failed to download object",
			slog.String("key", key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	s.log.Debug("object downloaded", slog.String("key", key), slog.Int("size", len(data)))
	return data, nil
}

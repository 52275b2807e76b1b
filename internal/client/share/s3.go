// Package share publishes exported notes to S3-compatible object storage
// through presigned URLs.
package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/learnassist/internal/netx"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config describes the target bucket. Endpoint is optional; when set the
// client uses path-style addressing, which MinIO and most self-hosted
// stores expect.
type Config struct {
	Region    string
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	// LinkTTL bounds how long the returned GET link stays valid.
	LinkTTL time.Duration
}

func (c Config) Enabled() bool {
	return c.Bucket != ""
}

type S3Exporter struct {
	cfg     Config
	presign *s3.PresignClient
	hc      *http.Client
}

func NewS3Exporter(ctx context.Context, cfg Config, hc *http.Client) (*S3Exporter, error) {
	if !cfg.Enabled() {
		return nil, errors.New("share: bucket required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 7 * 24 * time.Hour
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Exporter{cfg: cfg, presign: s3.NewPresignClient(client), hc: hc}, nil
}

// Export uploads body under key with a presigned PUT and returns a
// presigned GET link to it.
func (e *S3Exporter) Export(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	bucket := e.cfg.Bucket

	put, err := presignPutObject(e.presign, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}

	if err := netx.UploadToPresignedURL(ctx, e.hc, put.URL, bytes.NewReader(body), int64(len(body)), contentType); err != nil {
		return "", err
	}

	get, err := presignGetObject(e.presign, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(e.cfg.LinkTTL))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return get.URL, nil
}

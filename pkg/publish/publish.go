// Package publish uploads finished sheets to S3-compatible object storage.
//
// A target is written as s3://bucket/prefix. Every file keeps its base name
// under the prefix, so re-publishing a job overwrites the previous upload.
// Credentials come from the standard AWS chain unless static keys are
// given; an endpoint override targets MinIO and similar services.
package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"

	"github.com/matzehuels/zinefold/pkg/errors"
)

// Environment variables read by OptionsFromEnv.
const (
	EnvEndpoint  = "ZINEFOLD_S3_ENDPOINT"
	EnvRegion    = "ZINEFOLD_S3_REGION"
	EnvAccessKey = "ZINEFOLD_S3_ACCESS_KEY_ID"
	EnvSecretKey = "ZINEFOLD_S3_SECRET_ACCESS_KEY"
)

// Target is a bucket and key prefix.
type Target struct {
	Bucket string
	Prefix string
}

// ParseTarget parses "s3://bucket[/prefix]".
func ParseTarget(raw string) (Target, error) {
	rest, ok := strings.CutPrefix(raw, "s3://")
	if !ok {
		return Target{}, errors.New(errors.ErrCodeInvalidConfig, "invalid publish target %q (want s3://bucket/prefix)", raw)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Target{}, errors.New(errors.ErrCodeInvalidConfig, "publish target %q has no bucket", raw)
	}
	return Target{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// Key returns the object key for a local file.
func (t Target) Key(file string) string {
	return path.Join(t.Prefix, filepath.Base(file))
}

// URL returns the s3:// URL of a local file once published.
func (t Target) URL(file string) string {
	return "s3://" + t.Bucket + "/" + t.Key(file)
}

// Options configures the S3 client.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// OptionsFromEnv reads the ZINEFOLD_S3_* variables.
func OptionsFromEnv() Options {
	return Options{
		Endpoint:  os.Getenv(EnvEndpoint),
		Region:    os.Getenv(EnvRegion),
		AccessKey: os.Getenv(EnvAccessKey),
		SecretKey: os.Getenv(EnvSecretKey),
	}
}

// uploader is the part of manager.Uploader that Publisher uses.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Publisher uploads files to one target.
type Publisher struct {
	target   Target
	uploader uploader
	logger   *log.Logger
}

// New builds a Publisher backed by the AWS SDK.
func New(ctx context.Context, target Target, opts Options, logger *log.Logger) (*Publisher, error) {
	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newPublisher(target, manager.NewUploader(client), logger), nil
}

func newPublisher(target Target, up uploader, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{target: target, uploader: up, logger: logger}
}

// Publish uploads files in order and returns their s3:// URLs. It stops at
// the first failure.
func (p *Publisher) Publish(ctx context.Context, files []string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, file := range files {
		if err := p.upload(ctx, file); err != nil {
			return urls, err
		}
		urls = append(urls, p.target.URL(file))
	}
	p.logger.Info("published", "bucket", p.target.Bucket, "prefix", p.target.Prefix, "files", len(urls))
	return urls, nil
}

func (p *Publisher) upload(ctx context.Context, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(file); err == nil {
		contentType = mt.String()
	}

	key := p.target.Key(file)
	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.target.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s to s3://%s/%s: %w", file, p.target.Bucket, key, err)
	}
	p.logger.Debug("uploaded", "file", file, "key", key, "content_type", contentType)
	return nil
}

// Package s3mirror copies stored uploads to an S3 compatible bucket. The
// object key is the file's date-sharded path below the upload base path.
package s3mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"fileintake/internal/domain/upload"
	"fileintake/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrInvalidConfig = errors.New("s3mirror: bucket and region are required")
	ErrInvalidKey    = errors.New("s3mirror: invalid object key")
)

// S3Client is the subset of the S3 API the mirror uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error)
}

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // MinIO, R2 and other S3 compatible services
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	Prefix          string
	UploadTimeout   time.Duration
}

// Mirror uploads files after they are stored. RelativeFunc maps a stored
// path to its key, normally Pipeline.RelativePath.
type Mirror struct {
	client   S3Client
	bucket   string
	prefix   string
	timeout  time.Duration
	relative func(string) string
	log      *slog.Logger
}

type Option func(*Mirror)

// WithClient replaces the AWS client, mostly for tests.
func WithClient(c S3Client) Option {
	return func(m *Mirror) { m.client = c }
}

func WithLogger(log *slog.Logger) Option {
	return func(m *Mirror) { m.log = log }
}

// New builds a Mirror. Without static credentials the default AWS chain
// (environment, shared config, instance role) is used.
func New(ctx context.Context, cfg Config, relative func(string) string, opts ...Option) (*Mirror, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	m := &Mirror{
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		timeout:  cfg.UploadTimeout,
		relative: relative,
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "s3mirror", "bucket", cfg.Bucket)

	if m.client == nil {
		loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		m.client = s3aws.NewFromConfig(awsCfg, func(o *s3aws.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}
	return m, nil
}

// Key returns the object key for a stored file.
func (m *Mirror) Key(target string) (string, error) {
	rel := strings.TrimPrefix(target, "/")
	if m.relative != nil {
		rel = m.relative(target)
	}
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || strings.Contains(rel, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, rel)
	}
	if m.prefix != "" {
		rel = path.Join(m.prefix, rel)
	}
	return rel, nil
}

// Put uploads the file at target.
func (m *Mirror) Put(ctx context.Context, target string) (string, error) {
	key, err := m.Key(target)
	if err != nil {
		return "", err
	}

	f, err := os.Open(target)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", target, err)
	}
	defer func() { _ = f.Close() }()

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(target); err == nil {
		contentType = mt.String()
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	_, err = m.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", describe(err, "put", key)
	}
	return key, nil
}

// Delete removes the object mirrored for a file path relative to the base
// path.
func (m *Mirror) Delete(ctx context.Context, relPath string) error {
	key := strings.TrimPrefix(relPath, "/")
	if key == "" || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if m.prefix != "" {
		key = path.Join(m.prefix, key)
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	_, err := m.client.DeleteObject(ctx, &s3aws.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	return describe(err, "delete", key)
}

// Hook is an upload.PostMoveFunc. Mirror failures are logged; the local
// copy stays authoritative.
func (m *Mirror) Hook(ctx context.Context, target string, _ upload.AdditionalData) {
	key, err := m.Put(ctx, target)
	if err != nil {
		logger.FromContext(ctx, m.log).Error("failed to mirror file", "target", target, logger.Error(err))
		return
	}
	logger.FromContext(ctx, m.log).Debug("file mirrored", "key", key)
}

// OnRemove is a Service remove hook.
func (m *Mirror) OnRemove(ctx context.Context, relPath string) {
	if err := m.Delete(ctx, relPath); err != nil {
		logger.FromContext(ctx, m.log).Error("failed to delete mirrored file", "path", relPath, logger.Error(err))
	}
}

func (m *Mirror) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(ctx, m.timeout)
	}
	return ctx, func() {}
}

func describe(err error, op, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("s3mirror: %s %s: %w", op, key, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("s3mirror: %s %s: %s: %w", op, key, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("s3mirror: %s %s: %w", op, key, err)
}

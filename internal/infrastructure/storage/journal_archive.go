// Package storage archives pruned journal entries to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/akiliki/arruti-app-sub000/internal/application/orderstore"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/config"
)

// ObjectPutter is the part of the S3 client the archive needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// JournalArchive writes journal entries as JSON Lines objects
type JournalArchive struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *zap.Logger
}

// Option configures a JournalArchive
type Option func(*JournalArchive)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *JournalArchive) { a.logger = logger }
}

// NewS3JournalArchive builds an archive on an S3 client for cfg.
// Any S3-compatible endpoint works (AWS, MinIO, RustFS).
func NewS3JournalArchive(ctx context.Context, cfg config.ArchiveConfig, opts ...Option) (*JournalArchive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, errors.New("archive access key and secret key must be set together")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewJournalArchive(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

// NewJournalArchive builds an archive on any ObjectPutter
func NewJournalArchive(client ObjectPutter, bucket, prefix string, opts ...Option) *JournalArchive {
	a := &JournalArchive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Archive uploads records as one object and returns its key.
// Nothing is written for an empty batch.
func (a *JournalArchive) Archive(ctx context.Context, records []orderstore.MutationRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return "", fmt.Errorf("failed to encode journal entry %d: %w", rec.Seq, err)
		}
	}

	key := a.objectKey(records)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload journal archive: %w", err)
	}

	a.logger.Info("Journal entries archived",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
		zap.Int("entries", len(records)),
	)
	return key, nil
}

// objectKey names the object after the first and last finish time of the batch
func (a *JournalArchive) objectKey(records []orderstore.MutationRecord) string {
	const layout = "20060102T150405Z"
	first := records[0].FinishedAt.UTC()
	last := records[len(records)-1].FinishedAt.UTC()
	name := fmt.Sprintf("journal-%s-%s.jsonl", first.Format(layout), last.Format(layout))
	return path.Join(a.prefix, first.Format("2006/01"), name)
}

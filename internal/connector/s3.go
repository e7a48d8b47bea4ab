// Package connector pulls raw material for the detectors from external
// stores. The only connector today is an S3 document source feeding the
// document detector.
package connector

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/complyops/sentinel/internal/config"
	"github.com/complyops/sentinel/internal/detector"
	"github.com/complyops/sentinel/pkg/logger"
)

// maxDocumentBytes caps how much of a single object is read. Policy documents
// are text; anything larger is truncated rather than rejected.
const maxDocumentBytes = 1 << 20

// S3API is the slice of the S3 client the connector uses.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3DocumentSource lists and fetches policy documents from an S3 bucket.
type S3DocumentSource struct {
	client S3API
	bucket string
	prefix string
	log    logger.Logger
}

// NewS3DocumentSource builds a source from the shared AWS config chain
// (environment, shared credentials, instance role).
func NewS3DocumentSource(ctx context.Context, cfg *config.S3Config, log logger.Logger) (*S3DocumentSource, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewS3DocumentSourceWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix, log), nil
}

// NewS3DocumentSourceWithClient builds a source around an existing client.
func NewS3DocumentSourceWithClient(client S3API, bucket, prefix string, log logger.Logger) *S3DocumentSource {
	return &S3DocumentSource{
		client: client,
		bucket: bucket,
		prefix: prefix,
		log:    log.With("connector", "s3", "bucket", bucket),
	}
}

// Documents lists every object under the configured prefix and fetches its
// content. A fetch failure on one object is logged and skipped so a single
// bad key cannot stall the crawl; a listing failure is an error.
func (s *S3DocumentSource) Documents(ctx context.Context) ([]detector.Document, error) {
	var docs []detector.Document

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}

			content, err := s.fetch(ctx, key)
			if err != nil {
				s.log.Warn("skipping unreadable object", "key", key, "error", err)
				continue
			}
			docs = append(docs, detector.Document{
				ID:           key,
				Title:        titleFromKey(key),
				Content:      content,
				URL:          fmt.Sprintf("s3://%s/%s", s.bucket, key),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	s.log.Info("crawled documents", "count", len(docs))
	return docs, nil
}

func (s *S3DocumentSource) fetch(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("getting object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxDocumentBytes))
	if err != nil {
		return "", fmt.Errorf("reading object body: %w", err)
	}
	return string(data), nil
}

// titleFromKey derives a human-readable title from an object key, so document
// type matching works on keys like "policies/privacy_policy.md".
func titleFromKey(key string) string {
	base := path.Base(key)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.ReplaceAll(base, "_", " ")
}

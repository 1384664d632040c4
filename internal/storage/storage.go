// Package storage holds image store implementations.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// objectAPI is the subset of the S3 client used by S3ImageStore.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore stores images in an S3 bucket and serves them from a public base URL.
type S3ImageStore struct {
	client  objectAPI
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewS3ImageStore creates an S3ImageStore. An empty baseURL defaults to the
// virtual-hosted bucket endpoint in region.
func NewS3ImageStore(client objectAPI, bucket, region, baseURL string, logger *zap.Logger) *S3ImageStore {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3ImageStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Upload puts the object at folder/filename and returns its public URL.
func (s *S3ImageStore) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader, size int64) (string, error) {
	key := path.Join(folder, filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	s.logger.Info("image uploaded", zap.String("bucket", s.bucket), zap.String("key", key))
	return s.baseURL + "/" + key, nil
}

// Delete removes the object addressed by a URL previously returned by Upload.
// URLs from other hosts are ignored.
func (s *S3ImageStore) Delete(ctx context.Context, rawURL string) error {
	key, ok := s.keyFromURL(rawURL)
	if !ok {
		s.logger.Warn("skipping delete of foreign image URL", zap.String("url", rawURL))
		return nil
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3ImageStore) keyFromURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, s.baseURL+"/") {
		return "", false
	}
	key := strings.TrimPrefix(rawURL, s.baseURL+"/")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	return key, key != ""
}

// PlaceholderStore is used when S3 is disabled. It discards the content and
// returns a deterministic local path.
type PlaceholderStore struct {
	logger *zap.Logger
}

// NewPlaceholderStore creates a PlaceholderStore.
func NewPlaceholderStore(logger *zap.Logger) *PlaceholderStore {
	return &PlaceholderStore{logger: logger}
}

func (p *PlaceholderStore) Upload(_ context.Context, folder, filename, _ string, body io.Reader, _ int64) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	p.logger.Debug("image storage disabled, returning placeholder",
		zap.String("folder", folder),
		zap.String("filename", filename),
	)
	return "/placeholder/" + folder + "/" + filename, nil
}

func (p *PlaceholderStore) Delete(_ context.Context, url string) error {
	p.logger.Debug("image storage disabled, nothing to delete", zap.String("url", url))
	return nil
}

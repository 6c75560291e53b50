// Package s3 stores audio objects in an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.ObjectStore = (*Store)(nil)

// Config holds bucket settings.
type Config struct {
	Bucket string
	Region string
	// Endpoint targets an S3-compatible service; path-style addressing is
	// used when it is set.
	Endpoint string
	// PublicBaseURL prefixes keys in returned URLs. Empty uses the bucket's
	// virtual-hosted URL.
	PublicBaseURL string
}

// Store uploads objects with PutObject.
type Store struct {
	api s3iface.S3API
	cfg Config
}

// NewStore creates a store from a new AWS session. Credentials come from the
// default provider chain.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	awsCfg := aws.NewConfig()
	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *awsCfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create session: %w", err)
	}
	return NewStoreWithClient(s3.New(sess), cfg), nil
}

// NewStoreWithClient creates a store over an existing client.
func NewStoreWithClient(api s3iface.S3API, cfg Config) *Store {
	return &Store{api: api, cfg: cfg}
}

// Put uploads data under key and returns its URL.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", key, err)
	}
	logger.Debug("s3: stored %s (%d bytes)", key, len(data))
	return s.url(key), nil
}

func (s *Store) url(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + escaped
	}
	if s.cfg.Endpoint != "" {
		return strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.cfg.Bucket, escaped)
}

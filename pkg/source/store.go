// pkg/source/store.go
package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/config"
)

// ObjectStore abstracts listing and fetching dataset files. Fetching is a
// retryable, idempotent bulk read; the loader consumes whole objects only.
type ObjectStore interface {
	// List returns the keys of all dataset files, in lexical order
	List(ctx context.Context) ([]string, error)

	// Fetch returns the full contents of one object
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// ErrObjectNotFound indicates a listed object disappeared before fetch
var ErrObjectNotFound = fmt.Errorf("object does not exist")

// S3Store reads dataset files from an S3 bucket prefix
type S3Store struct {
	client        s3iface.S3API
	bucket        string
	prefix        string
	fetchTimeout  time.Duration
	retryAttempts int
	retryDelay    time.Duration
	logger        *zap.Logger
}

// NewS3Store creates an S3-backed object store from configuration
func NewS3Store(cfg *config.StoreConfig, retryAttempts int, retryDelay time.Duration, logger *zap.Logger) (*S3Store, error) {
	awsConfig := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3StoreWithClient(s3.New(sess), cfg, retryAttempts, retryDelay, logger), nil
}

// NewS3StoreWithClient creates an S3Store with an injected client
func NewS3StoreWithClient(client s3iface.S3API, cfg *config.StoreConfig, retryAttempts int, retryDelay time.Duration, logger *zap.Logger) *S3Store {
	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        cfg.Prefix,
		fetchTimeout:  cfg.FetchTimeout,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
		logger:        logger.Named("s3-store"),
	}
}

// List returns all keys under the configured prefix, in lexical order
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	s.logger.Info("Listing dataset objects",
		zap.String("bucket", s.bucket),
		zap.String("prefix", s.prefix))

	keys := make([]string, 0)
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in s3://%s/%s: %w", s.bucket, s.prefix, err)
	}

	sort.Strings(keys)

	s.logger.Info("Found dataset objects", zap.Int("count", len(keys)))
	return keys, nil
}

// Fetch retrieves one object, retrying transient failures
func (s *S3Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= s.retryAttempts; attempt++ {
		if attempt > 0 {
			s.logger.Warn("Retrying object fetch",
				zap.String("key", key),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		content, err := s.fetchOnce(ctx, key)
		if err == nil {
			return content, nil
		}
		if err == ErrObjectNotFound {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fetching s3://%s/%s: %w", s.bucket, key, lastErr)
}

func (s *S3Store) fetchOnce(ctx context.Context, key string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	result, err := s.client.GetObjectWithContext(fetchCtx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchBucket, s3.ErrCodeNoSuchKey:
				return nil, ErrObjectNotFound
			}
		}
		return nil, err
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LocalStore reads dataset files from a local directory.
// Used in development and tests in place of S3.
type LocalStore struct {
	dir    string
	logger *zap.Logger
}

// NewLocalStore creates a filesystem-backed object store
func NewLocalStore(dir string, logger *zap.Logger) *LocalStore {
	return &LocalStore{
		dir:    dir,
		logger: logger.Named("local-store"),
	}
}

// List returns the names of all .tsv files in the directory, in lexical order
func (l *LocalStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", l.dir, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".tsv") || strings.HasSuffix(entry.Name(), ".txt") {
			keys = append(keys, entry.Name())
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Fetch reads one file from the directory
func (l *LocalStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(l.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("reading file %s: %w", key, err)
	}
	return content, nil
}

// NewStore selects a store implementation from configuration
func NewStore(cfg *config.StoreConfig, retryAttempts int, retryDelay time.Duration, logger *zap.Logger) (ObjectStore, error) {
	if cfg.LocalDir != "" {
		return NewLocalStore(cfg.LocalDir, logger), nil
	}
	return NewS3Store(cfg, retryAttempts, retryDelay, logger)
}

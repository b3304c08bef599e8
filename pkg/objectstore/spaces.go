// Package objectstore is the optional artifact mirror the executor writes
// through to alongside its mandatory local filesystem sink.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"reaplex/internal/config"
)

// Store mirrors an artifact by relative path. Implementations are
// best-effort: the executor logs failures and proceeds, since the local
// filesystem write is the durability guarantee the spec requires.
type Store interface {
	Put(ctx context.Context, relPath string, data []byte) error
}

// SpacesStore is an S3-compatible mirror onto DigitalOcean Spaces, adapted
// from the teacher's pkg/utils/spaces.go SpacesClient.
type SpacesStore struct {
	client     *s3.S3
	bucketName string
	bucketURL  string
	cdnURL     string
	logger     *logrus.Logger
}

// NewSpacesStore builds a mirror from config.DigitalOcean.Spaces. Returns
// nil, nil when no bucket URL is configured — the caller treats that as
// "mirroring disabled".
func NewSpacesStore(cfg *config.Config) (*SpacesStore, error) {
	spaces := cfg.DigitalOcean.Spaces
	if spaces.BucketURL == "" {
		return nil, nil
	}
	if spaces.AccessKeyID == "" || spaces.AccessKeySecret == "" {
		return nil, fmt.Errorf("digitalocean spaces credentials are required when bucket_url is set")
	}

	endpoint := fmt.Sprintf("https://%s.digitaloceanspaces.com", spaces.Region)
	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(spaces.AccessKeyID, spaces.AccessKeySecret, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(spaces.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create digitalocean spaces session: %w", err)
	}

	return &SpacesStore{
		client:     s3.New(sess),
		bucketName: spaces.BucketName,
		bucketURL:  spaces.BucketURL,
		cdnURL:     spaces.CDNEndpoint,
		logger:     logrus.StandardLogger(),
	}, nil
}

// Put uploads data under relPath (e.g. "data/raw/{job_id}.html") as a
// publicly readable object, preserving the local artifact's relative path
// as the object key.
func (s *SpacesStore) Put(ctx context.Context, relPath string, data []byte) error {
	objectKey := strings.TrimPrefix(relPath, "/")

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(objectKey)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	return nil
}

// IsHealthy checks whether the configured bucket is reachable.
func (s *SpacesStore) IsHealthy() bool {
	_, err := s.client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	return err == nil
}

func contentTypeFor(key string) string {
	if strings.HasSuffix(key, ".json") {
		return "application/json"
	}
	if strings.HasSuffix(key, ".html") {
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"barangayhealth/internal/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the slice of MinIO the report store needs.
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error
	EnsureBucketExists(ctx context.Context, bucketName string) error
}

type minioClient struct {
	client *minio.Client
}

func NewMinioStore(endpoint, accessKey, secretKey string, useSSL bool) (ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioClient{client: client}, nil
}

func (m *minioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	_, err := m.client.PutObject(ctx, bucketName, objectName, reader, objectSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *minioClient) EnsureBucketExists(ctx context.Context, bucketName string) error {
	found, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
	}
	return nil
}

// SweepReportStore keeps a JSON copy of every sweep summary for audit.
type SweepReportStore interface {
	Save(ctx context.Context, summary *models.SweepSummary) (string, error)
}

type objectReportStore struct {
	store  ObjectStore
	bucket string
}

func NewSweepReportStore(store ObjectStore, bucket string) SweepReportStore {
	if bucket == "" {
		bucket = "stock-sweeps"
	}
	return &objectReportStore{store: store, bucket: bucket}
}

// reportObjectName lays reports out by day: 2026/10/19/<run id>.json
func reportObjectName(summary *models.SweepSummary) string {
	return fmt.Sprintf("%s/%s.json", summary.StartedAt.UTC().Format("2006/01/02"), summary.RunID)
}

func (s *objectReportStore) Save(ctx context.Context, summary *models.SweepSummary) (string, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal sweep report: %w", err)
	}
	if err := s.store.EnsureBucketExists(ctx, s.bucket); err != nil {
		return "", fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}

	name := reportObjectName(summary)
	if err := s.store.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", fmt.Errorf("upload sweep report %s: %w", name, err)
	}
	return name, nil
}

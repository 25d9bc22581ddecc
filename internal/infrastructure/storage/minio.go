package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/painpoint-labs/painpoint/pkg/config"
)

// NotesStore holds raw meeting notes that arrive as files or uploads.
// Meetings from those sources carry an object key in their metadata and
// the ingestion pipeline fetches the text from here.
type NotesStore struct {
	client *minio.Client
	bucket string
}

// NewNotesStore connects to MinIO and ensures the notes bucket exists
func NewNotesStore(cfg *config.StorageConfig) (*NotesStore, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &NotesStore{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	if err := store.ensureBucket(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return store, nil
}

func (ns *NotesStore) ensureBucket(ctx context.Context) error {
	exists, err := ns.client.BucketExists(ctx, ns.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := ns.client.MakeBucket(ctx, ns.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// FetchNotes downloads the raw notes text stored under the given key
func (ns *NotesStore) FetchNotes(ctx context.Context, objectKey string) (string, error) {
	obj, err := ns.client.GetObject(ctx, ns.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get notes object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("failed to read notes object: %w", err)
	}
	return string(data), nil
}

// StoreNotes uploads raw notes text and returns nothing; callers keep
// the key they chose in the meeting metadata
func (ns *NotesStore) StoreNotes(ctx context.Context, objectKey string, notes string) error {
	reader := bytes.NewReader([]byte(notes))
	_, err := ns.client.PutObject(ctx, ns.bucket, objectKey, reader, int64(len(notes)), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("failed to upload notes: %w", err)
	}
	return nil
}


package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// ErrObjectNotFound is returned by Read when the object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// StorageAdapter reads and writes whole objects in Cloud Storage.
type StorageAdapter struct {
	Client *storage.Client

	// CacheControl is set on written objects; the leaderboard page reads
	// the snapshot straight from the bucket.
	CacheControl string
}

// Write uploads data in one object write. The object is replaced only when
// the writer closes successfully.
func (a *StorageAdapter) Write(ctx context.Context, bucketName, objectName string, data []byte) error {
	wc := a.Client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/json"
	if a.CacheControl != "" {
		wc.CacheControl = a.CacheControl
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("write gs://%s/%s: %w", bucketName, objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", bucketName, objectName, err)
	}
	return nil
}

func (a *StorageAdapter) Read(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	rc, err := a.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucketName, objectName, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucketName, objectName, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

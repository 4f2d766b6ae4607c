package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// Encode renders the document as 2-space indented JSON with a trailing newline.
func Encode(s *types.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, lberrors.ErrSnapshotInvalid.WithCause(err)
	}
	return append(data, '\n'), nil
}

// Decode parses a stored document.
func Decode(data []byte) (*types.Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, lberrors.ErrSnapshotInvalid.WithMessage("snapshot is not a JSON object")
	}
	var s types.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, lberrors.ErrSnapshotInvalid.WithCause(err)
	}
	return &s, nil
}

// FileStore keeps the snapshot in a local file. Writes replace the file
// atomically, so readers see either the old or the new document.
type FileStore struct {
	Path string
}

func (f *FileStore) Location() string {
	return f.Path
}

func (f *FileStore) Write(ctx context.Context, s *types.Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return lberrors.ErrStorageError.WithCause(err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return lberrors.ErrStorageError.WithCause(err)
	}
	tmpName := tmp.Name()

	if err := writeAndSync(tmp, data); err != nil {
		os.Remove(tmpName)
		return lberrors.ErrStorageError.WithCause(err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return lberrors.ErrStorageError.WithCause(err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		os.Remove(tmpName)
		return lberrors.ErrStorageError.WithCause(err)
	}
	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read loads the stored document.
func (f *FileStore) Read(ctx context.Context) (*types.Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, lberrors.ErrSnapshotFetchFailed.WithCause(err)
	}
	return Decode(data)
}

// BlobWriter mirrors the snapshot to an object store.
type BlobWriter struct {
	Store  shared.BlobStore
	Bucket string
	Object string
}

func (b *BlobWriter) Location() string {
	return fmt.Sprintf("gs://%s/%s", b.Bucket, b.Object)
}

func (b *BlobWriter) Write(ctx context.Context, s *types.Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := b.Store.Write(ctx, b.Bucket, b.Object, data); err != nil {
		return lberrors.ErrStorageError.WithCause(err).WithMetadata("location", b.Location())
	}
	return nil
}

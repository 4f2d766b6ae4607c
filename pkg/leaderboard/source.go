package leaderboard

import (
	"context"
	"fmt"
	"io"
	"net/http"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
	"github.com/ripixel/fitglue-leaderboard/pkg/snapshot"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// Source loads the snapshot a page is rendered from.
type Source interface {
	Load(ctx context.Context) (*types.Snapshot, error)
}

// FileSource reads the snapshot from the local file the builder writes.
type FileSource struct {
	Path string
}

func (s *FileSource) Load(ctx context.Context) (*types.Snapshot, error) {
	return (&snapshot.FileStore{Path: s.Path}).Read(ctx)
}

// HTTPSource fetches the snapshot with a single GET.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Load(ctx context.Context) (*types.Snapshot, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, lberrors.ErrSnapshotFetchFailed.WithCause(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, lberrors.ErrSnapshotFetchFailed.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, lberrors.ErrSnapshotFetchFailed.WithCause(fmt.Errorf("%s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lberrors.ErrSnapshotFetchFailed.WithCause(err)
	}
	return snapshot.Decode(data)
}

// BlobSource reads the snapshot mirror from the object store.
type BlobSource struct {
	Store  shared.BlobStore
	Bucket string
	Object string
}

func (s *BlobSource) Load(ctx context.Context) (*types.Snapshot, error) {
	data, err := s.Store.Read(ctx, s.Bucket, s.Object)
	if err != nil {
		return nil, lberrors.ErrSnapshotFetchFailed.WithCause(err)
	}
	return snapshot.Decode(data)
}

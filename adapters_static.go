package deepzoom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

// tileObjectPath builds the relative path (and S3 object key) for a tile:
// "<dataset>/<level>/<x>/<y>.<ext>".
func tileObjectPath(tile TileID, ext string) string {
	return fmt.Sprintf("%s/%d/%s/%s.%s", tile.Dataset, tile.Level, tile.X.String(), tile.Y.String(), ext)
}

// minioObjectLister is the subset of *minio.Client used by S3StaticStore,
// narrowed the way cmd/webserver/storage.go's storageClient interface
// narrows *minio.Client for testability.
type minioObjectLister interface {
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// S3StaticStore fetches tile bytes from an S3-compatible object store via
// minio-go, grounded on cmd/webserver/storage.go's client-field pattern.
type S3StaticStore struct {
	inner  minioObjectLister
	Bucket string
	Ext    string
}

// NewS3StaticStore creates a static store backed by an S3-compatible
// endpoint. client is typically *minio.Client from minio.New.
func NewS3StaticStore(client minioObjectLister, bucket, ext string) *S3StaticStore {
	if ext == "" {
		ext = "webp"
	}
	return &S3StaticStore{inner: client, Bucket: bucket, Ext: ext}
}

// FetchStatic implements TileSource.
func (s *S3StaticStore) FetchStatic(ctx context.Context, tile TileID) ([]byte, error) {
	obj, err := s.inner.GetObject(ctx, s.Bucket, tileObjectPath(tile, s.Ext), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("deepzoom: fetch static tile %s: %w", tile.Key(), err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("deepzoom: read static tile %s: %w", tile.Key(), err)
	}
	return data, nil
}

// LocalStaticStore serves tile bytes from a local directory tree laid out
// as "<root>/<dataset>/<level>/<x>/<y>.<ext>".
type LocalStaticStore struct {
	Root string
	Ext  string
}

// NewLocalStaticStore creates a static store rooted at dir.
func NewLocalStaticStore(dir, ext string) *LocalStaticStore {
	if ext == "" {
		ext = "webp"
	}
	return &LocalStaticStore{Root: dir, Ext: ext}
}

// FetchStatic implements TileSource.
func (s *LocalStaticStore) FetchStatic(_ context.Context, tile TileID) ([]byte, error) {
	path := filepath.Join(s.Root, filepath.FromSlash(tileObjectPath(tile, s.Ext)))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deepzoom: read static tile %s: %w", tile.Key(), err)
	}
	return data, nil
}

// HTTPStaticStore fetches tile bytes from a CDN or static file server over
// HTTP, "<BaseURL>/<dataset>/<level>/<x>/<y>.<ext>".
type HTTPStaticStore struct {
	Client  *http.Client
	BaseURL string
	Ext     string
}

// NewHTTPStaticStore creates a static store backed by an HTTP origin.
func NewHTTPStaticStore(client *http.Client, baseURL, ext string) *HTTPStaticStore {
	if client == nil {
		client = http.DefaultClient
	}
	if ext == "" {
		ext = "webp"
	}
	return &HTTPStaticStore{Client: client, BaseURL: baseURL, Ext: ext}
}

// FetchStatic implements TileSource.
func (s *HTTPStaticStore) FetchStatic(ctx context.Context, tile TileID) ([]byte, error) {
	url := s.BaseURL + "/" + tileObjectPath(tile, s.Ext)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("deepzoom: build static tile request %s: %w", tile.Key(), err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepzoom: fetch static tile %s: %w", tile.Key(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepzoom: static tile %s: %w (status %d)", tile.Key(), ErrTileDecodeError, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deepzoom: read static tile %s: %w", tile.Key(), err)
	}
	return data, nil
}

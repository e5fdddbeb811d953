package deepzoom

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// LiveRenderClient fetches a tile via the backend's on-demand render
// endpoint, "GET /live/{dataset}/{level}/{x}/{y}.{ext}" (spec §4.8). A 503
// response is surfaced with its status code so Scheduler.Complete can
// schedule a retry instead of treating it as a hard failure.
type LiveRenderClient struct {
	Client  *http.Client
	BaseURL string
	Ext     string
}

// NewLiveRenderClient creates a live-render client against baseURL.
func NewLiveRenderClient(client *http.Client, baseURL, ext string) *LiveRenderClient {
	if client == nil {
		client = http.DefaultClient
	}
	if ext == "" {
		ext = "webp"
	}
	return &LiveRenderClient{Client: client, BaseURL: baseURL, Ext: ext}
}

// FetchLive implements the live half of TileSource: bytes, HTTP status, err.
func (c *LiveRenderClient) FetchLive(ctx context.Context, tile TileID) ([]byte, int, error) {
	url := fmt.Sprintf("%s/live/%s", c.BaseURL, tileObjectPath(tile, c.Ext))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("deepzoom: build live render request %s: %w", tile.Key(), err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrLiveBackendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, resp.StatusCode, ErrLiveBackendBusy
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", ErrLiveBackendFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("deepzoom: read live render response %s: %w", tile.Key(), err)
	}
	return data, resp.StatusCode, nil
}

// staticFetcher is the subset of a static store's behavior TileSource needs.
type staticFetcher interface {
	FetchStatic(ctx context.Context, tile TileID) ([]byte, error)
}

// liveFetcher is the subset of a live-render client's behavior TileSource
// needs.
type liveFetcher interface {
	FetchLive(ctx context.Context, tile TileID) ([]byte, int, error)
}

// tileSource composes a static store and a live-render client into a single
// TileSource, since datasets typically pair one of each (spec §4.8).
type tileSource struct {
	static staticFetcher
	live   liveFetcher
}

// NewTileSource combines a static store and a live-render client into the
// TileSource the Orchestrator expects. live may be nil for datasets that
// never fall back to on-demand rendering.
func NewTileSource(static staticFetcher, live liveFetcher) TileSource {
	return &tileSource{static: static, live: live}
}

func (t *tileSource) FetchStatic(ctx context.Context, tile TileID) ([]byte, error) {
	return t.static.FetchStatic(ctx, tile)
}

func (t *tileSource) FetchLive(ctx context.Context, tile TileID) ([]byte, int, error) {
	if t.live == nil {
		return nil, 0, ErrLiveBackendFailed
	}
	return t.live.FetchLive(ctx, tile)
}

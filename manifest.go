package deepzoom

import (
	"encoding/json"
	"log"
	"sync"
)

// TileManifest is the set of "level/x/y" tile keys known to exist in a
// dataset's static cache (spec §3/§6). It grows monotonically: a
// successful live render adds its tile to the manifest so subsequent
// visits route through the cheap static lane (spec §4.5 cache admission).
type TileManifest struct {
	mu      sync.RWMutex
	keys    map[string]bool
	missing bool // true if the manifest itself could not be loaded
}

// NewTileManifest creates an empty manifest.
func NewTileManifest() *TileManifest {
	return &TileManifest{keys: make(map[string]bool)}
}

// LoadTileManifest parses a JSON array of "level/x/y" strings (spec §6).
// A load failure yields a manifest in the ManifestMissing state: Has
// always reports true, so callers fall back to always-request behavior
// (spec §7) rather than silently dropping every tile, and the failure is
// logged once.
func LoadTileManifest(data []byte) *TileManifest {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		log.Printf("deepzoom: %v: %v", ErrManifestMissing, err)
		return &TileManifest{keys: make(map[string]bool), missing: true}
	}
	m := &TileManifest{keys: make(map[string]bool, len(keys))}
	for _, k := range keys {
		m.keys[k] = true
	}
	return m
}

// Has reports whether key is known to exist in the static cache. A
// manifest in the ManifestMissing state always reports true (assume
// present, always attempt the static fetch) rather than false, since a
// missing manifest must not suppress every tile request.
func (m *TileManifest) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.missing {
		return true
	}
	return m.keys[key]
}

// Add records key as present, e.g. after a successful live render.
func (m *TileManifest) Add(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = true
	m.missing = false
}

// Missing reports whether this manifest failed to load (ManifestMissing).
func (m *TileManifest) Missing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.missing
}

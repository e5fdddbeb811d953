package deepzoom

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Lane identifies a scheduler queue with its own concurrency limit.
type Lane uint8

const (
	// LaneStatic serves tiles known to exist in the dataset's manifest;
	// cheap, decode-only, high concurrency.
	LaneStatic Lane = iota
	// LaneLive serves tiles absent from the manifest via an on-demand
	// backend render; expensive, at-most-one in flight.
	LaneLive
)

const (
	staticLaneLimit = 6
	liveLaneLimit   = 1
	// defaultRetryDelayMs is the delay before a 503'd live request is
	// retried at the front of its lane's queue (spec §4.5).
	defaultRetryDelayMs = 200
)

// RequestStatus is the lifecycle state of a TileRequest.
type RequestStatus uint8

const (
	StatusQueued RequestStatus = iota
	StatusDispatched
	StatusDone
)

// StaticOptions carries static-lane payload: bytes are fetched off the main
// loop, then delivered via the Scheduler's completion channel; decoding
// happens when the receiver applies the completion.
type StaticOptions struct {
	Fetch func(ctx context.Context) ([]byte, error)
}

// LiveOptions carries live-lane payload: the function that fetches the tile
// from the render backend and the retry delay to use on a 503.
type LiveOptions struct {
	Fetch        func(ctx context.Context) ([]byte, int, error) // bytes, httpStatus, err
	RetryDelayMs int
}

// TileRequest is a single scheduler entry: a tile's identity, which lane it
// was requested on, its lifecycle status, and lane-specific options.
type TileRequest struct {
	Tile   TileID
	Lane   Lane
	Status RequestStatus

	Static StaticOptions
	Live   LiveOptions

	// Badge is the live-lane queue-position label ("#1".."#10", "#10+"),
	// recomputed whenever the queue is re-sorted. Zero value for the
	// static lane.
	Badge string
	// Rendering is true while a live request is in flight.
	Rendering bool

	// RelX, RelY are the tile's top-left position in target-level tile
	// units relative to the camera (from VisibleTile), used to derive
	// on-screen bounds for priority sorting.
	RelX, RelY float64

	// screenArea and centerDistSq back the priority sort (spec §4.5);
	// recomputed by UpdateViewport.
	screenArea   float64
	centerDistSq float64
	retryAt      time.Time
	pendingRetry bool
}

// CompletionMessage is delivered on Scheduler's Completions channel when a
// background worker finishes a job, per spec §5's request/completion
// channel model.
type CompletionMessage struct {
	Tile    TileID
	Bytes   []byte
	Err     error
	Lane    Lane
	// HTTPStatus is set for live-lane completions to distinguish 503
	// (retry) from other non-2xx failures (no retry).
	HTTPStatus int
}

// manifestSource reports whether a tile key is known to exist in a
// dataset's static cache. Scheduler.SetManifest installs the concrete
// implementation (see manifest.go).
type manifestSource interface {
	Has(key string) bool
	Add(key string)
}

// Scheduler is a prioritized, pruned, two-lane tile request queue with
// retry, queue-position badging, and manifest-aware routing, per spec §4.5.
// It is main-loop-owned: Request/Prune/Process/Complete must all be called
// from the same goroutine (the display frame loop); background workers
// communicate results back via Completions.
type Scheduler struct {
	mu sync.Mutex

	queue   []*TileRequest
	active  map[TileID]*TileRequest // dispatched, lane-indexed by tile
	limits  [2]int
	counts  [2]int

	manifest manifestSource

	liveEnabled bool

	// Completions delivers (tile, fetched bytes or error) messages from
	// background workers back to the main loop.
	Completions chan CompletionMessage

	// viewport state used to recompute priority on demand.
	lastCam   *Camera
	lastViewW float64
	lastViewH float64
	lastTile  float64

	workers errgroup.Group
}

// NewScheduler creates a Scheduler with the standard lane limits (static:
// 6, live: 1) and the given manifest.
func NewScheduler(manifest manifestSource) *Scheduler {
	return &Scheduler{
		active:      make(map[TileID]*TileRequest),
		limits:      [2]int{staticLaneLimit, liveLaneLimit},
		manifest:    manifest,
		Completions: make(chan CompletionMessage, 64),
	}
}

// SetLiveRenderEnabled toggles whether absent-from-manifest tiles route to
// the live lane (true) or are skipped entirely (false), per spec §4.6's
// static-lane manifest gate.
func (s *Scheduler) SetLiveRenderEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveEnabled = enabled
}

// Request enqueues a request for tile, routing to the static lane if its
// key is in the manifest, otherwise to the live lane (if enabled). relX,
// relY are the tile's expected on-screen position (target-level tile
// units relative to the camera), used for priority sorting. If a request
// for the same tile is already active or queued, its options are merged
// into the existing entry rather than enqueuing a duplicate (spec §4.5
// rebinding). Returns false if the tile was skipped (live disabled and
// tile absent from manifest).
func (s *Scheduler) Request(tile TileID, relX, relY float64, static StaticOptions, live LiveOptions) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	lane := LaneStatic
	inManifest := s.manifest != nil && s.manifest.Has(tile.Key())
	if !inManifest {
		if !s.liveEnabled {
			return false
		}
		lane = LaneLive
	}

	if existing := s.findLocked(tile); existing != nil {
		existing.Static = static
		existing.Live = live
		existing.RelX, existing.RelY = relX, relY
		return true
	}

	s.queue = append(s.queue, &TileRequest{
		Tile:   tile,
		Lane:   lane,
		Status: StatusQueued,
		Static: static,
		Live:   live,
		RelX:   relX,
		RelY:   relY,
	})
	s.recomputePriorityLocked()
	return true
}

func (s *Scheduler) findLocked(tile TileID) *TileRequest {
	// active is keyed by TileID, whose BigIndex fields compare by pointer,
	// so an equal tile built elsewhere is matched with Equal instead.
	for _, r := range s.active {
		if r.Tile.Equal(tile) {
			return r
		}
	}
	for _, r := range s.queue {
		if r.Tile.Equal(tile) {
			return r
		}
	}
	return nil
}

// UpdateViewport records the current camera/viewport and recomputes
// priority ordering, per spec §4.5 ("Priority recomputes whenever new
// camera/view is recorded").
func (s *Scheduler) UpdateViewport(cam *Camera, viewW, viewH, tileSize float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastCam, s.lastViewW, s.lastViewH, s.lastTile = cam, viewW, viewH, tileSize
	s.recomputePriorityLocked()
}

func (s *Scheduler) recomputePriorityLocked() {
	if s.lastCam == nil {
		return
	}

	for _, r := range s.queue {
		displayScale := math.Exp2(s.lastCam.GlobalLevel - float64(r.Tile.Level))
		tileScreen := displayScale * s.lastTile
		r.screenArea = tileScreen * tileScreen

		// Tile center, in pixels relative to the viewport center.
		cx := (r.RelX + 0.5) * tileScreen
		cy := (r.RelY + 0.5) * tileScreen
		r.centerDistSq = cx*cx + cy*cy
	}

	sortRequestsByPriority(s.queue)
	s.rebadgeLocked()
}

// sortRequestsByPriority sorts by larger screen area first, then by
// smaller squared center distance within equal-area bins, per spec §4.5.
// A full re-sort each call mirrors the render command sort used elsewhere
// in this engine: queue sizes are small enough that a plain sort beats
// maintaining a heap.
func sortRequestsByPriority(reqs []*TileRequest) {
	insertionSortRequests(reqs)
}

func insertionSortRequests(reqs []*TileRequest) {
	for i := 1; i < len(reqs); i++ {
		j := i
		for j > 0 && lessPriority(reqs[j], reqs[j-1]) {
			reqs[j], reqs[j-1] = reqs[j-1], reqs[j]
			j--
		}
	}
}

func lessPriority(a, b *TileRequest) bool {
	if a.screenArea != b.screenArea {
		return a.screenArea > b.screenArea
	}
	return a.centerDistSq < b.centerDistSq
}

// rebadgeLocked assigns "#1".."#10","#10+" labels to queued live-lane
// requests in priority order.
func (s *Scheduler) rebadgeLocked() {
	n := 0
	for _, r := range s.queue {
		if r.Lane != LaneLive {
			continue
		}
		n++
		r.Badge = badgeFor(n)
	}
}

func badgeFor(position int) string {
	if position > 10 {
		return "#10+"
	}
	digits := [...]string{"", "#1", "#2", "#3", "#4", "#5", "#6", "#7", "#8", "#9", "#10"}
	return digits[position]
}

// Prune drops queued entries no longer visible from camera/view, scanning
// every level within +/-2 of floor(camera.GlobalLevel) that appears in the
// queue, per spec §4.5.
func (s *Scheduler) Prune(cam *Camera, viewW, viewH, tileSize float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := cam.BaseLevel()
	validByLevel := make(map[int]map[string]bool)
	for _, r := range s.queue {
		lvl := r.Tile.Level
		if lvl < base-2 || lvl > base+2 {
			continue
		}
		if _, ok := validByLevel[lvl]; ok {
			continue
		}
		res := VisibleTiles(cam, lvl, viewW, viewH, tileSize)
		set := make(map[string]bool, len(res.Tiles))
		for _, t := range res.Tiles {
			set[t.X.String()+"/"+t.Y.String()] = true
		}
		validByLevel[lvl] = set
	}

	kept := s.queue[:0]
	for _, r := range s.queue {
		lvl := r.Tile.Level
		if lvl < base-2 || lvl > base+2 {
			continue // out of range: evicted
		}
		set := validByLevel[lvl]
		if !set[r.Tile.X.String()+"/"+r.Tile.Y.String()] {
			continue // not visible: evicted
		}
		kept = append(kept, r)
	}
	s.queue = kept
	s.rebadgeLocked()
}

// Process dispatches queued requests up to each lane's available
// concurrency, launching a background goroutine per dispatch that performs
// the fetch and posts a CompletionMessage.
func (s *Scheduler) Process(ctx context.Context) {
	s.mu.Lock()
	var toDispatch []*TileRequest
	remaining := s.queue[:0]
	avail := [2]int{s.limits[0] - s.counts[0], s.limits[1] - s.counts[1]}

	for _, r := range s.queue {
		lane := int(r.Lane)
		if r.pendingRetry && time.Now().Before(r.retryAt) {
			remaining = append(remaining, r)
			continue
		}
		r.pendingRetry = false
		if avail[lane] > 0 {
			avail[lane]--
			s.counts[lane]++
			r.Status = StatusDispatched
			r.Rendering = r.Lane == LaneLive
			s.active[r.Tile] = r
			toDispatch = append(toDispatch, r)
		} else {
			remaining = append(remaining, r)
		}
	}
	s.queue = remaining
	s.mu.Unlock()

	for _, r := range toDispatch {
		s.dispatch(ctx, r)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, r *TileRequest) {
	s.workers.Go(func() error {
		switch r.Lane {
		case LaneStatic:
			s.runStatic(ctx, r)
		case LaneLive:
			s.runLive(ctx, r)
		}
		return nil
	})
}

func (s *Scheduler) runStatic(ctx context.Context, r *TileRequest) {
	var bytes []byte
	var err error
	if r.Static.Fetch != nil {
		bytes, err = r.Static.Fetch(ctx)
	}
	msg := CompletionMessage{Tile: r.Tile, Bytes: bytes, Err: err, Lane: LaneStatic}
	if err != nil {
		msg.Err = &DecodeError{Tile: r.Tile, Err: err}
	}
	s.Completions <- msg
}

func (s *Scheduler) runLive(ctx context.Context, r *TileRequest) {
	var bytes []byte
	var status int
	var err error
	if r.Live.Fetch != nil {
		bytes, status, err = r.Live.Fetch(ctx)
	}
	s.Completions <- CompletionMessage{
		Tile: r.Tile, Bytes: bytes, Err: err, Lane: LaneLive, HTTPStatus: status,
	}
}

// Complete is called once per CompletionMessage received from Completions,
// freeing the dispatching lane's slot and applying retry/cache-admission
// rules (spec §4.5/§4.6).
func (s *Scheduler) Complete(msg CompletionMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.active[msg.Tile]
	if !ok {
		return
	}
	delete(s.active, msg.Tile)
	s.counts[msg.Lane]--
	r.Rendering = false

	if msg.Lane == LaneLive {
		switch {
		case msg.HTTPStatus == 503 || (msg.Err != nil && msg.HTTPStatus == 0):
			delay := r.Live.RetryDelayMs
			if delay == 0 {
				delay = defaultRetryDelayMs
			}
			r.Status = StatusQueued
			r.pendingRetry = true
			r.retryAt = time.Now().Add(time.Duration(delay) * time.Millisecond)
			r.Rendering = false
			s.queue = append([]*TileRequest{r}, s.queue...) // re-enqueue at front
			s.recomputePriorityLocked()
			return
		case msg.HTTPStatus != 0 && msg.HTTPStatus/100 != 2:
			r.Status = StatusDone
			return
		case msg.HTTPStatus/100 == 2:
			if s.manifest != nil {
				s.manifest.Add(msg.Tile.Key())
			}
		}
	}

	r.Status = StatusDone
}

// ActiveCount returns the number of in-flight requests on the given lane.
func (s *Scheduler) ActiveCount(lane Lane) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[lane]
}

// QueueLen returns the number of queued (not yet dispatched) requests.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Wait blocks until all dispatched background jobs have posted their
// completion message. Intended for tests and clean shutdown.
func (s *Scheduler) Wait() {
	s.workers.Wait()
}

// Package session runs the per-frame hit pipeline and the measurement
// commands on one serialised context.
package session

import (
	"image"
	"log"
	"sync"
	"time"

	"github.com/philipparndt/armeasure/internal/config"
	"github.com/philipparndt/armeasure/internal/hit"
	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/plane"
	"github.com/philipparndt/armeasure/internal/projection"
	"github.com/philipparndt/armeasure/internal/render"
	"github.com/philipparndt/armeasure/internal/stability"
	"github.com/philipparndt/armeasure/internal/status"
	"github.com/philipparndt/armeasure/internal/store"
	"github.com/philipparndt/armeasure/internal/torch"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Tracker is the spatial tracking provider a session reads from
type Tracker interface {
	hit.Tracker
	plane.Provider
}

// Renderer is the scene renderer used for screenshots
type Renderer interface {
	projection.Projector
	// SetTransientVisible shows or hides the crosshair, pending point and preview line
	SetTransientVisible(visible bool)
	// Snapshot captures the current frame
	Snapshot() (image.Image, error)
	// Viewport returns the current view size
	Viewport() projection.Viewport
}

// Haptics gives tactile feedback
type Haptics interface {
	Vibrate() error
}

// Options configures a session. Only Tracker is required.
type Options struct {
	Config   config.Config
	Tracker  Tracker
	Renderer Renderer
	Torch    torch.Device
	Haptics  Haptics
	Listener status.Listener
	Store    *store.Store
	Logger   *log.Logger
}

// Capabilities lists the collaborators available to the session. They are
// fixed when the session is created.
type Capabilities struct {
	Tracking bool `json:"tracking"`
	Picture  bool `json:"picture"`
	Torch    bool `json:"torch"`
	Haptics  bool `json:"haptics"`
}

// pendingPoint is the first endpoint of a measurement in progress
type pendingPoint struct {
	Position  geometry.Vector3
	Alignment measurement.Alignment
}

// Session is the context shared by Tick and all commands
type Session struct {
	mu sync.Mutex

	unit       measurement.Unit
	tracker    Tracker
	renderer   Renderer
	haptics    Haptics
	torch      *torch.Debouncer
	resolver   *hit.Resolver
	filter     *stability.Filter
	store      *store.Store
	aggregator *plane.Aggregator
	status     *status.Broadcaster
	logger     *log.Logger
	caps       Capabilities

	pending   *pendingPoint
	cached    *measurement.HitResult
	cachedErr error
}

// New creates a session. A zero Config in opts is replaced by config.Default.
func New(opts Options) *Session {
	cfg := opts.Config
	if cfg == (config.Config{}) {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := opts.Store
	if s == nil {
		s = store.New()
	}

	session := &Session{
		unit:       cfg.Unit(),
		tracker:    opts.Tracker,
		renderer:   opts.Renderer,
		haptics:    opts.Haptics,
		resolver:   hit.NewResolver(opts.Tracker, cfg.Hit()),
		filter:     stability.NewFilter(cfg.Stability()),
		store:      s,
		aggregator: plane.NewAggregator(s, cfg.Unit()),
		status:     status.NewBroadcaster(opts.Listener),
		logger:     logger,
		caps: Capabilities{
			Tracking: opts.Tracker != nil,
			Picture:  opts.Renderer != nil,
			Torch:    opts.Torch != nil,
			Haptics:  opts.Haptics != nil,
		},
	}
	if opts.Torch != nil {
		session.torch = torch.NewDebouncer(opts.Torch, cfg.TorchOnDelay, cfg.TorchOffDelay, logger)
	}
	if !session.caps.Tracking {
		logger.Printf("session: no tracking provider, measuring is disabled")
	}
	return session
}

// Capabilities returns the collaborators the session was created with
func (s *Session) Capabilities() Capabilities {
	return s.caps
}

// Store returns the measurement store of the session
func (s *Session) Store() *store.Store {
	return s.store
}

// Tick resolves query against the current frame. The second return value
// reports whether the hit changed visibly. The scale and orientation
// throttles are polled on every tick, so a suppressed tick still returns the
// cached hit when one of them is due; otherwise it returns a zero Target.
func (s *Session) Tick(now time.Time, query geometry.Vector2) (render.Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.caps.Tracking {
		s.status.SetAR(status.AROff)
		return render.Target{}, false
	}
	if s.tracker.Ready() {
		s.status.SetAR(status.ARReady)
	} else {
		s.status.SetAR(status.ARLoading)
	}

	result, err := s.resolver.Resolve(query, s.store.List())
	s.status.SetMeasuring(status.MeasuringFor(err))

	accepted := s.filter.Accept(now, result, err)
	if accepted {
		s.cached = result
		s.cachedErr = err
	}

	scaleDue := s.filter.Scale.Due(now)
	orientationDue := s.filter.Orientation.Due(now)
	if accepted {
		return render.NewTarget(s.cached, s.cachedErr, scaleDue, orientationDue), true
	}
	if s.cached != nil && (scaleDue || orientationDue) {
		return render.NewTarget(s.cached, s.cachedErr, scaleDue, orientationDue), false
	}
	return render.Target{}, false
}

// Interrupt discards the cached hit after tracking was interrupted
func (s *Session) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropCache()
	s.status.SetAR(status.ARLoading)
	s.status.SetMeasuring(status.MeasuringOff)
}

// dropCache forgets the cached hit so the next tick recomputes it. Caller holds the lock.
func (s *Session) dropCache() {
	s.cached = nil
	s.cachedErr = nil
	s.filter.Reset()
}

// Pending returns the pending point, if any
func (s *Session) Pending() (geometry.Vector3, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return geometry.Vector3{}, false
	}
	return s.pending.Position, true
}

// SetTorch requests the flash light. It never blocks.
func (s *Session) SetTorch(on bool) {
	if s.torch == nil {
		s.logger.Printf("session: torch requested but not available")
		return
	}
	s.torch.Set(on)
}

// RenderLines returns the directives for all committed measurements seen from
// the current camera
func (s *Session) RenderLines() []render.Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cameraPos geometry.Vector3
	if s.caps.Tracking {
		if camera, ok := s.tracker.CameraTransform(); ok {
			cameraPos = camera.Position()
		}
	}
	return render.Lines(s.store.List(), cameraPos)
}

// Close stops pending side effects
func (s *Session) Close() {
	if s.torch != nil {
		s.torch.Stop()
	}
	s.status.SetAR(status.AROff)
}

// Package server exposes the session command surface over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/plane"
	"github.com/philipparndt/armeasure/internal/session"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// tapRadius is how far from a label a tap still selects it, in points
const tapRadius = 44

// Storage persists measurements after every change and records exported
// pictures
type Storage interface {
	SaveGroups(ctx context.Context, groups []measurement.Group) error
	RecordPicture(ctx context.Context, path string, takenAt time.Time, lines []measurement.MeasurementLine2D) error
}

// Options configures the server. All fields are optional.
type Options struct {
	Storage    Storage
	PictureDir string // Pictures are written into this directory by base name
	Logger     *log.Logger
}

// Server is the HTTP transport of one session
type Server struct {
	session    *session.Session
	storage    Storage
	pictureDir string
	logger     *log.Logger
	app        *fiber.App

	// persistMu orders snapshots and saves across concurrent requests
	persistMu sync.Mutex
}

// New creates a server with all routes registered
func New(s *session.Session, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	srv := &Server{
		session:    s,
		storage:    opts.Storage,
		pictureDir: opts.PictureDir,
		logger:     logger,
		app: fiber.New(fiber.Config{
			AppName:      "armeasure",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		}),
	}
	srv.routes()
	return srv
}

// App returns the underlying fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	s.app.Use(recover.New())

	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	api := s.app.Group("/api/v1")
	api.Get("/capabilities", s.capabilities)
	api.Post("/clear", s.clear)
	api.Post("/clear-current", s.clearCurrent)
	api.Post("/remove-last", s.removeLast)
	api.Get("/measurements", s.measurements)
	api.Delete("/measurements/:id", s.removeMeasurement)
	api.Patch("/measurements/:id", s.editMeasurement)
	api.Post("/points", s.addPoint)
	api.Get("/planes", s.planes)
	api.Post("/planes", s.addPlane)
	api.Delete("/planes/:id", s.removePlane)
	api.Post("/picture", s.takePicture)
	api.Post("/tap", s.tap)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// decode parses an optional JSON body into target
func decode(c fiber.Ctx, target any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return json.Unmarshal(c.Body(), target)
}

// persist saves the current store. The snapshot is taken under persistMu so
// the last save always reflects every mutation made before it.
func (s *Server) persist(ctx context.Context) {
	if s.storage == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if err := s.storage.SaveGroups(ctx, s.session.Store().List()); err != nil {
		s.logger.Printf("server: failed to save measurements: %v", err)
	}
}

func (s *Server) scope(c fiber.Ctx) (measurement.Scope, bool) {
	return measurement.ParseScope(c.Query("scope"))
}

func (s *Server) capabilities(c fiber.Ctx) error {
	return c.JSON(s.session.Capabilities())
}

func (s *Server) clear(c fiber.Ctx) error {
	scope, ok := s.scope(c)
	if !ok {
		return badRequest(c, "scope must be all, points or planes")
	}
	removed := s.session.Clear(scope)
	s.persist(c.Context())
	return c.JSON(fiber.Map{"error": nil, "removed": lines(removed)})
}

func (s *Server) clearCurrent(c fiber.Ctx) error {
	s.session.ClearCurrent()
	return c.JSON(fiber.Map{"error": nil})
}

func (s *Server) removeLast(c fiber.Ctx) error {
	scope, ok := s.scope(c)
	if !ok {
		return badRequest(c, "scope must be all, points or planes")
	}
	removed := s.session.RemoveLast(scope)
	s.persist(c.Context())
	return c.JSON(fiber.Map{"error": nil, "removed": lines(removed)})
}

func (s *Server) measurements(c fiber.Ctx) error {
	return c.JSON(lines(s.session.Measurements()))
}

func (s *Server) removeMeasurement(c fiber.Ctx) error {
	removed := s.session.RemoveMeasurement(c.Params("id"))
	if removed != nil {
		s.persist(c.Context())
	}
	return c.JSON(fiber.Map{"error": nil, "measurement": removed})
}

type editRequest struct {
	Text         *string `json:"text"`
	ClearPlaneID bool    `json:"clearPlaneId"`
}

func (s *Server) editMeasurement(c fiber.Ctx) error {
	var req editRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, "invalid JSON payload")
	}
	if req.Text == nil {
		return badRequest(c, "text is required")
	}

	updated := s.session.EditMeasurement(c.Params("id"), *req.Text, req.ClearPlaneID)
	if updated != nil {
		s.persist(c.Context())
	}
	return c.JSON(fiber.Map{"error": nil, "measurement": updated})
}

type pointRequest struct {
	SetCurrent bool `json:"setCurrent"`
}

func (s *Server) addPoint(c fiber.Ctx) error {
	var req pointRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, "invalid JSON payload")
	}

	result := s.session.AddPoint(req.SetCurrent)
	if result.Measurement != nil {
		s.persist(c.Context())
	}
	return c.JSON(result.Response())
}

func (s *Server) planes(c fiber.Ctx) error {
	minDimension := 0.0
	if raw := c.Query("min"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return badRequest(c, "min must be a non-negative number")
		}
		minDimension = v
	}
	alignment, ok := plane.ParseAlignmentFilter(c.Query("alignment"))
	if !ok {
		return badRequest(c, "alignment must be all, vertical or horizontal")
	}
	return c.JSON(s.session.Planes(minDimension, alignment))
}

type planeRequest struct {
	PlaneID string `json:"planeId"`
	Left    bool   `json:"left"`
	Top     bool   `json:"top"`
	Right   bool   `json:"right"`
	Bottom  bool   `json:"bottom"`
	SetID   bool   `json:"setId"`
	Vibrate bool   `json:"vibrate"`
}

func (s *Server) addPlane(c fiber.Ctx) error {
	var req planeRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, "invalid JSON payload")
	}

	result := s.session.AddPlane(session.PlaneRequest{
		PlaneID: req.PlaneID,
		Edges:   plane.Edges{Left: req.Left, Top: req.Top, Right: req.Right, Bottom: req.Bottom},
		SetID:   req.SetID,
		Vibrate: req.Vibrate,
	})
	if len(result.Measurements) > 0 {
		s.persist(c.Context())
	}
	return c.JSON(result.Response())
}

func (s *Server) removePlane(c fiber.Ctx) error {
	removed := s.session.RemovePlane(c.Params("id"))
	if len(removed) > 0 {
		s.persist(c.Context())
	}
	return c.JSON(fiber.Map{"error": nil, "measurements": lines(removed)})
}

type pictureRequest struct {
	Path string `json:"path"`
}

func (s *Server) takePicture(c fiber.Ctx) error {
	var req pictureRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, "invalid JSON payload")
	}
	if strings.TrimSpace(req.Path) == "" {
		return badRequest(c, "path is required")
	}

	path := req.Path
	if s.pictureDir != "" {
		path = filepath.Join(s.pictureDir, filepath.Base(path))
	}

	result := s.session.TakePicture(path)
	if result.Err == nil && s.storage != nil {
		if err := s.storage.RecordPicture(c.Context(), path, time.Now(), result.Measurements); err != nil {
			s.logger.Printf("server: failed to record picture %s: %v", path, err)
		}
	}
	return c.JSON(result.Response())
}

type tapRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) tap(c fiber.Ctx) error {
	var req tapRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, "invalid JSON payload")
	}

	line, ok := s.session.Tap(geometry.NewVector2(req.X, req.Y), tapRadius)
	if !ok {
		return c.JSON(fiber.Map{"error": nil, "measurement": nil})
	}
	return c.JSON(fiber.Map{"error": nil, "measurement": line})
}

// lines keeps empty results as [] on the wire
func lines(l []measurement.MeasurementLine) []measurement.MeasurementLine {
	if l == nil {
		return []measurement.MeasurementLine{}
	}
	return l
}

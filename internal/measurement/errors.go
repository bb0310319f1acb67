package measurement

import (
	"errors"
)

// Kind is the error taxonomy of the measurement engine
type Kind int

const (
	KindNone Kind = iota
	KindNotReady
	KindCameraUnknown
	KindNoSurfaceFound
	KindDetectionFailed
	KindTooClose
	KindTooFar
	KindInvalidID
	KindExportFailed
	KindOther
)

var (
	// ErrNotReady means the tracking provider has not started producing frames
	ErrNotReady = errors.New("tracking not ready")
	// ErrCameraUnknown means no camera pose is available for the current frame
	ErrCameraUnknown = errors.New("camera pose unknown")
	// ErrNoSurfaceFound is the frequent, soft "nothing under the crosshair" case
	ErrNoSurfaceFound = errors.New("no surface found")
	// ErrDetectionFailed means the provider returned no usable candidate at any pass
	ErrDetectionFailed = errors.New("detection failed")
	// ErrTooClose blocks point placement
	ErrTooClose = errors.New("too close to the surface")
	// ErrTooFar is reported alongside a still usable hit
	ErrTooFar = errors.New("too far from the surface")
	// ErrInvalidID means the target entity does not exist
	ErrInvalidID = errors.New("invalid id")
	// ErrExportFailed wraps I/O failures while writing pictures
	ErrExportFailed = errors.New("export failed")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotReady, KindNotReady},
	{ErrCameraUnknown, KindCameraUnknown},
	{ErrNoSurfaceFound, KindNoSurfaceFound},
	{ErrDetectionFailed, KindDetectionFailed},
	{ErrTooClose, KindTooClose},
	{ErrTooFar, KindTooFar},
	{ErrInvalidID, KindInvalidID},
	{ErrExportFailed, KindExportFailed},
}

// KindOf classifies err. When err wraps several sentinels the one listed
// first in the taxonomy wins.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindOther
}

// IsSoft reports whether err still comes with a usable result
func IsSoft(err error) bool {
	return KindOf(err) == KindTooFar
}

// Message renders err for result payloads: nil becomes nil, anything else its text
func Message(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	return &msg
}

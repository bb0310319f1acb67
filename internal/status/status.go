// Package status forwards session state notifications to a listener.
package status

import (
	"sync"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// AR is the tracking state
type AR string

const (
	AROff     AR = "off"
	ARLoading AR = "loading"
	ARReady   AR = "ready"
)

// Measuring is the state of the crosshair target
type Measuring string

const (
	MeasuringOff   Measuring = "off"
	MeasuringReady Measuring = "ready"
	MeasuringError Measuring = "error"
)

// Listener receives notifications. Calls are fire-and-forget.
type Listener interface {
	ARStatusChange(status AR)
	MeasuringStatusChange(status Measuring)
	TextTap(line measurement.MeasurementLine2D, location geometry.Vector2)
}

// Broadcaster forwards status changes only when the value differs from the
// last one sent. Text taps are always forwarded.
type Broadcaster struct {
	listener Listener

	mu        sync.Mutex
	ar        AR
	measuring Measuring
}

// NewBroadcaster creates a broadcaster. A nil listener drops everything.
func NewBroadcaster(listener Listener) *Broadcaster {
	return &Broadcaster{listener: listener}
}

// SetAR reports the tracking state
func (b *Broadcaster) SetAR(status AR) {
	b.mu.Lock()
	changed := b.ar != status
	b.ar = status
	b.mu.Unlock()

	if changed && b.listener != nil {
		b.listener.ARStatusChange(status)
	}
}

// SetMeasuring reports the target state
func (b *Broadcaster) SetMeasuring(status Measuring) {
	b.mu.Lock()
	changed := b.measuring != status
	b.measuring = status
	b.mu.Unlock()

	if changed && b.listener != nil {
		b.listener.MeasuringStatusChange(status)
	}
}

// TextTap reports a tap on a measurement label
func (b *Broadcaster) TextTap(line measurement.MeasurementLine2D, location geometry.Vector2) {
	if b.listener != nil {
		b.listener.TextTap(line, location)
	}
}

// AR returns the last tracking state
func (b *Broadcaster) AR() AR {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ar
}

// Measuring returns the last target state
func (b *Broadcaster) Measuring() Measuring {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.measuring
}

// MeasuringFor maps a resolution error to the target state
func MeasuringFor(err error) Measuring {
	switch measurement.KindOf(err) {
	case measurement.KindNone:
		return MeasuringReady
	case measurement.KindNotReady, measurement.KindCameraUnknown:
		return MeasuringOff
	default:
		return MeasuringError
	}
}

package main

import (
	"log"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/status"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// logTorch stands in for the device torch when replaying scripts
type logTorch struct {
	logger *log.Logger
}

func (t *logTorch) SetTorch(on bool) error {
	t.logger.Printf("torch on=%v", on)
	return nil
}

type logHaptics struct {
	logger *log.Logger
}

func (h *logHaptics) Vibrate() error {
	h.logger.Printf("vibrate")
	return nil
}

type logListener struct {
	logger *log.Logger
}

func (l *logListener) ARStatusChange(s status.AR) {
	l.logger.Printf("ar status: %s", s)
}

func (l *logListener) MeasuringStatusChange(s status.Measuring) {
	l.logger.Printf("measuring status: %s", s)
}

func (l *logListener) TextTap(line measurement.MeasurementLine2D, location geometry.Vector2) {
	l.logger.Printf("text tap: measurement %s (%s) at %.0f,%.0f", line.ID, line.Label, location.X, location.Y)
}

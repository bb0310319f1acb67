package session

import (
	"github.com/philipparndt/armeasure/internal/measurement"
)

// AddPointResponse is the external shape of AddPointResult
type AddPointResponse struct {
	Error          *string                      `json:"error"`
	Measurement    *measurement.MeasurementLine `json:"measurement"`
	CameraDistance *float64                     `json:"cameraDistance"`
}

// Response converts the result into its external shape
func (r AddPointResult) Response() AddPointResponse {
	return AddPointResponse{
		Error:          measurement.Message(r.Err),
		Measurement:    r.Measurement,
		CameraDistance: r.CameraDistance,
	}
}

// AddPlaneResponse is the external shape of AddPlaneResult
type AddPlaneResponse struct {
	Error        *string                       `json:"error"`
	Measurements []measurement.MeasurementLine `json:"measurements"`
	Plane        *measurement.ARPlane          `json:"plane"`
}

// Response converts the result into its external shape
func (r AddPlaneResult) Response() AddPlaneResponse {
	lines := r.Measurements
	if lines == nil {
		lines = []measurement.MeasurementLine{}
	}
	return AddPlaneResponse{
		Error:        measurement.Message(r.Err),
		Measurements: lines,
		Plane:        r.Plane,
	}
}

// PictureResponse is the external shape of PictureResult
type PictureResponse struct {
	Error        *string                         `json:"error"`
	Measurements []measurement.MeasurementLine2D `json:"measurements"`
}

// Response converts the result into its external shape
func (r PictureResult) Response() PictureResponse {
	lines := r.Measurements
	if lines == nil {
		lines = []measurement.MeasurementLine2D{}
	}
	return PictureResponse{
		Error:        measurement.Message(r.Err),
		Measurements: lines,
	}
}

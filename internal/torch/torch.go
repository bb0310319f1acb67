// Package torch debounces flash light requests so that hardware toggling never
// blocks the measurement pipeline.
package torch

import (
	"log"
	"sync"
	"time"
)

// Device switches the camera flash light
type Device interface {
	SetTorch(on bool) error
}

// Debouncer delays torch requests. A newer request replaces a pending one.
type Debouncer struct {
	device   Device
	onDelay  time.Duration
	offDelay time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending *bool
	state   bool
}

// NewDebouncer creates a debouncer. A nil logger logs to the standard logger.
func NewDebouncer(device Device, onDelay, offDelay time.Duration, logger *log.Logger) *Debouncer {
	if logger == nil {
		logger = log.Default()
	}
	return &Debouncer{
		device:   device,
		onDelay:  onDelay,
		offDelay: offDelay,
		logger:   logger,
	}
}

// Set schedules switching the torch. It returns immediately.
func (d *Debouncer) Set(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = &on

	delay := d.offDelay
	if on {
		delay = d.onDelay
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		d.fire(timer, on)
	})
	d.timer = timer
}

func (d *Debouncer) fire(timer *time.Timer, on bool) {
	d.mu.Lock()
	if d.timer != timer {
		// Superseded by a newer request
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.pending = nil
	d.mu.Unlock()

	if err := d.device.SetTorch(on); err != nil {
		d.logger.Printf("torch: failed to switch %s: %v", onOff(on), err)
		return
	}

	d.mu.Lock()
	d.state = on
	d.mu.Unlock()
}

// State returns the last state the device accepted
func (d *Debouncer) State() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Pending reports the requested state that has not been applied yet
func (d *Debouncer) Pending() (bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return false, false
	}
	return *d.pending, true
}

// Stop cancels a pending request
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

package board

import (
	"fmt"
	"sync"
	"time"

	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

type analogReadFunc func(pin int) (int, error)

type reportingPin struct {
	interval time.Duration
	callback AnalogCallback
	stop     chan struct{}
}

// analogReporter polls analog input pins and delivers their values to the registered callbacks
type analogReporter struct {
	mu   sync.Mutex
	read analogReadFunc
	pins map[int]*reportingPin
}

func newAnalogReporter(read analogReadFunc) *analogReporter {
	return &analogReporter{
		read: read,
		pins: map[int]*reportingPin{},
	}
}

func (r *analogReporter) register(pin int, interval time.Duration, callback AnalogCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pins[pin]; ok && existing.stop != nil {
		close(existing.stop)
	}
	r.pins[pin] = &reportingPin{
		interval: interval,
		callback: callback,
	}
}

func (r *analogReporter) enable(pin int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reporting, ok := r.pins[pin]
	if !ok {
		return fmt.Errorf("pin %d is not configured as analog input", pin)
	}
	if reporting.stop != nil {
		return nil
	}
	reporting.stop = make(chan struct{})
	go r.poll(pin, reporting.interval, reporting.callback, reporting.stop)
	return nil
}

func (r *analogReporter) disable(pin int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reporting, ok := r.pins[pin]
	if !ok {
		return fmt.Errorf("pin %d is not configured as analog input", pin)
	}
	if reporting.stop != nil {
		close(reporting.stop)
		reporting.stop = nil
	}
	return nil
}

func (r *analogReporter) enabled(pin int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	reporting, ok := r.pins[pin]
	return ok && reporting.stop != nil
}

func (r *analogReporter) callback(pin int) (AnalogCallback, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reporting, ok := r.pins[pin]
	if !ok || reporting.stop == nil {
		return nil, false
	}
	return reporting.callback, true
}

func (r *analogReporter) stopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reporting := range r.pins {
		if reporting.stop != nil {
			close(reporting.stop)
			reporting.stop = nil
		}
	}
}

func (r *analogReporter) poll(pin int, interval time.Duration, callback AnalogCallback, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			value, err := r.read(pin)
			if err != nil {
				// only log the first error of a streak
				if !failing {
					ui.Warning("%v", util.NewTransientHardwareError("analog read", pin, err))
				}
				failing = true
				continue
			}
			failing = false
			callback(AnalogReport{
				Type:      ReportTypeAnalog,
				Pin:       pin,
				Value:     value,
				Timestamp: now,
			})
		}
	}
}

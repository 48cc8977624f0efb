package steps

import (
	"context"
	"sync"
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
)

type notification struct {
	level ui.NotificationLevel
	title string
	text  string
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []notification
}

func (n *recordingNotifier) Notify(level ui.NotificationLevel, title string, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification{level: level, title: title, text: text})
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.notifications...)
}

func (n *recordingNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notifications) <= 0 {
		return notification{}
	}
	return n.notifications[len(n.notifications)-1]
}

// fakeSensor reports a value set by the test, Reset is only counted
type fakeSensor struct {
	id   string
	unit string

	mu     sync.Mutex
	value  float64
	resets int
}

func (s *fakeSensor) GetId() string {
	return s.id
}

func (s *fakeSensor) GetConfig() configuration.SensorConfig {
	return configuration.SensorConfig{ID: s.id}
}

func (s *fakeSensor) Start(ctx context.Context) error {
	return nil
}

func (s *fakeSensor) Poll(now time.Time) (float64, error) {
	return s.GetValue()
}

func (s *fakeSensor) GetValue() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, nil
}

func (s *fakeSensor) GetUnit() string {
	return s.unit
}

func (s *fakeSensor) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

func (s *fakeSensor) set(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
}

func (s *fakeSensor) resetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

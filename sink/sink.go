// Package sink is the fire-and-forget event recorder consumed by every
// component for upstream failures and cache rebuild events. Recording never
// affects control flow; write errors are swallowed.
package sink

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "sink")

// Recorder accepts one-line event descriptions.
type Recorder interface {
	Record(event string)
}

type fileSink struct {
	mu   sync.Mutex
	path string
}

// New returns a Recorder that logs each event and, when path is non-empty,
// appends it as a JSON line to the given file.
func New(path string) Recorder {
	return &fileSink{path: path}
}

func (s *fileSink) Record(event string) {
	log.Info(event)
	if s.path == "" {
		return
	}
	line, err := json.Marshal(map[string]string{
		"time":  time.Now().Format(time.RFC3339),
		"event": event,
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(append(line, '\n'))
}

type discard struct{}

func (discard) Record(string) {}

// Discard returns a Recorder that drops every event.
func Discard() Recorder { return discard{} }

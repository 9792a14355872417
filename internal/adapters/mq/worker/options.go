package worker

import (
	"github.com/okian/bookability/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used as its logger group.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRecorder appends every evaluation to a history recorder.
func WithRecorder(r Recorder) Option {
	return func(w *InMemoryWorker) {
		if r != nil {
			w.recorder = r
		}
	}
}

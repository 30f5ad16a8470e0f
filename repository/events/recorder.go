package eventsink

import (
	"sync"

	"github.com/drstrox/Decentralised-Book-Rental-System/model"
)

// Recorder captures emitted events in memory. Test helper and fallback sink.
type Recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Emit(ev model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

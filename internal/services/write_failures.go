package services

import (
	"sync"
	"time"
)

// WriteFailure describes the latest rejected write of one operation on one store.
type WriteFailure struct {
	Store string    `json:"store"`
	Op    string    `json:"op"`
	Error string    `json:"error"`
	Count int64     `json:"count"`
	At    time.Time `json:"at"`
}

// WriteFailures records store write failures reported by the task
// repository so they can be surfaced on the health endpoint.
type WriteFailures struct {
	mu      sync.Mutex
	byKey map[string]WriteFailure
	now     func() time.Time
}

func NewWriteFailures() *WriteFailures {
	return &WriteFailures{
		byKey: make(map[string]WriteFailure),
		now:     time.Now,
	}
}

// Record matches the repository's write-failure hook signature.
func (w *WriteFailures) Record(op, store string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := op + "/" + store
	f := w.byKey[key]
	f.Store = store
	f.Op = op
	f.Count++
	f.At = w.now()
	if err != nil {
		f.Error = err.Error()
	}
	w.byKey[key] = f
}

// Snapshot returns the failures recorded so far, keyed by "op/store".
func (w *WriteFailures) Snapshot() map[string]WriteFailure {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]WriteFailure, len(w.byKey))
	for k, v := range w.byKey {
		out[k] = v
	}
	return out
}

package logging

import "sync"

// Entry is one recorded log call.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// Recorder is a Logger that keeps every entry in memory. Tests use it to
// assert on diagnostics.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Info(msg string, kv ...any)  { r.record("info", msg, kv) }
func (r *Recorder) Warn(msg string, kv ...any)  { r.record("warn", msg, kv) }
func (r *Recorder) Error(msg string, kv ...any) { r.record("error", msg, kv) }

func (r *Recorder) record(level, msg string, kv []any) {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg, Fields: fields})
	r.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Level returns the entries logged at level.
func (r *Recorder) Level(level string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

package heal

// Attempts tracks unresolved restart attempts per container name.
// A name is present only while its container keeps needing healing; it is
// removed the first time the container is observed healthy again.
//
// Attempts is owned by a single Supervisor and is not safe for concurrent use.
// The zero value is ready to use.
type Attempts struct {
	counts map[string]int
}

// NewAttempts returns an empty attempt table.
func NewAttempts() *Attempts {
	return &Attempts{counts: make(map[string]int)}
}

// Get returns the stored attempt count for name, or 0 when absent.
func (a *Attempts) Get(name string) int {
	return a.counts[name]
}

// Has reports whether name has a recorded attempt.
func (a *Attempts) Has(name string) bool {
	_, ok := a.counts[name]
	return ok
}

// Reset drops the entry for name and reports whether one existed.
func (a *Attempts) Reset(name string) bool {
	if _, ok := a.counts[name]; !ok {
		return false
	}
	delete(a.counts, name)
	return true
}

// Len returns the number of containers with unresolved attempts.
func (a *Attempts) Len() int {
	return len(a.counts)
}

// Clone returns an independent copy.
func (a *Attempts) Clone() *Attempts {
	out := NewAttempts()
	for name, n := range a.counts {
		out.counts[name] = n
	}
	return out
}

func (a *Attempts) set(name string, n int) {
	if a.counts == nil {
		a.counts = make(map[string]int)
	}
	a.counts[name] = n
}

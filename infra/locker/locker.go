// locker/locker.go
package locker

import "sync"

// Locker tracks the job ids currently being processed in this process.
type Locker struct {
	mu           sync.Mutex
	inProcessMap map[string]bool
}

func New() *Locker {
	return &Locker{
		inProcessMap: make(map[string]bool),
	}
}

// TryLock marks a job id as processing. It returns false when the id is
// already taken.
func (l *Locker) TryLock(jobID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inProcessMap[jobID] {
		return false
	}
	l.inProcessMap[jobID] = true
	return true
}

// IsProcessing checks if a job id is already being processed.
func (l *Locker) IsProcessing(jobID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inProcessMap[jobID]
}

func (l *Locker) Unlock(jobID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inProcessMap, jobID)
}

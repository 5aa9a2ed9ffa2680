package tracker

import "sync"

// storyLocks serializes evaluations of the same story.
type storyLocks struct {
	locks sync.Map // story id -> *sync.Mutex
}

func (l *storyLocks) lock(storyID int64) (unlock func()) {
	m, _ := l.locks.LoadOrStore(storyID, &sync.Mutex{})
	mutex := m.(*sync.Mutex)
	mutex.Lock()
	return mutex.Unlock
}

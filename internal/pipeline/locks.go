package pipeline

import "sync"

// urlLocks serialises read-modify-write cycles per item URL. Entries are
// dropped once nobody holds or waits for them.
type urlLocks struct {
	mu    sync.Mutex
	locks map[string]*urlLock
}

type urlLock struct {
	mu   sync.Mutex
	refs int
}

func newURLLocks() *urlLocks {
	return &urlLocks{locks: make(map[string]*urlLock)}
}

// lock blocks until url is free and returns the matching unlock.
func (l *urlLocks) lock(url string) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[url]
	if !ok {
		entry = &urlLock{}
		l.locks[url] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, url)
		}
		l.mu.Unlock()
	}
}

func (l *urlLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

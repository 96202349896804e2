package locking

import (
	"errors"
	"sync"

	"github.com/go-redsync/redsync/v4"
)

var ErrLockHeld = errors.New("lock already held")

// Mutex is one named lock handle. TryLock fails fast when the lock is held
// elsewhere; Unlock releases it.
type Mutex interface {
	TryLock() error
	Unlock() (bool, error)
}

// Locker hands out named mutexes. The redsync implementation serializes
// across processes; the local one covers tests and single-node deployments.
type Locker interface {
	NewMutex(name string) Mutex
}

type redsyncLocker struct {
	rs *redsync.Redsync
}

func NewRedsyncLocker(rs *redsync.Redsync) Locker {
	return &redsyncLocker{rs}
}

func (l *redsyncLocker) NewMutex(name string) Mutex {
	return l.rs.NewMutex(name)
}

// LocalLocker keeps one mutex per name in-process. Names are never evicted;
// the key space here (accounts, redemptions) is small enough not to matter.
type LocalLocker struct {
	mu      sync.Mutex
	mutexes map[string]*localMutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{mutexes: map[string]*localMutex{}}
}

func (l *LocalLocker) NewMutex(name string) Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.mutexes[name]
	if !ok {
		m = &localMutex{}
		l.mutexes[name] = m
	}
	return m
}

type localMutex struct {
	mu sync.Mutex
}

func (m *localMutex) TryLock() error {
	if !m.mu.TryLock() {
		return ErrLockHeld
	}
	return nil
}

func (m *localMutex) Unlock() (bool, error) {
	m.mu.Unlock()
	return true, nil
}

package ioutil

import (
	"io"
	"sync"
)

// LockedReadCloser holds a read lock for the lifetime of the wrapped body and
// releases it exactly once on Close.
type LockedReadCloser struct {
	io.ReadCloser
	lock *sync.RWMutex
	once sync.Once
}

func (l *LockedReadCloser) Close() error {
	err := l.ReadCloser.Close()
	l.once.Do(l.lock.RUnlock)
	return err
}

func NewLockedReadCloser(r io.ReadCloser, lock *sync.RWMutex) *LockedReadCloser {
	return &LockedReadCloser{ReadCloser: r, lock: lock}
}

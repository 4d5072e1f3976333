package client

import (
	"context"
	"sync"
)

// fakeSession is a Session whose refresh swaps in a preset token.
type fakeSession struct {
	mu         sync.Mutex
	token      string
	next       string
	refreshErr error
	refreshes  int
	stale      []string
}

func (f *fakeSession) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSession) Refresh(_ context.Context, staleToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	f.stale = append(f.stale, staleToken)
	if f.refreshErr != nil {
		f.token = ""
		return "", f.refreshErr
	}
	f.token = f.next
	return f.next, nil
}

func (f *fakeSession) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

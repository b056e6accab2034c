// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"sync"
	"sync/atomic"
)

// groupGenerationArray is an append-only, lock-free-readable collection of
// groups. Readers (tryRentRun scans) follow a single atomic.Pointer load
// and never block; growth is serialized by mu and publishes a fresh copy
// so no in-flight reader ever observes a torn slice.
type groupGenerationArray struct {
	mu      sync.Mutex
	current atomic.Pointer[[]*group]
}

func (a *groupGenerationArray) snapshot() []*group {
	p := a.current.Load()
	if p == nil {
		return nil
	}
	return *p
}

// append adds g to the array, publishing a new backing slice. Safe to
// call concurrently with snapshot and with other appends, which a.mu
// serializes (BufferPool.growAndRent additionally holds growMu).
func (a *groupGenerationArray) append(g *group) []*group {
	a.mu.Lock()
	defer a.mu.Unlock()
	old := a.snapshot()
	next := make([]*group, len(old)+1)
	copy(next, old)
	next[len(old)] = g
	a.current.Store(&next)
	return next
}

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package segbuf

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// nativeRegion is a pinned, anonymous mmap region backing one BufferGroup
// of BackingNative. It is never touched by the Go garbage collector.
type nativeRegion struct {
	bytes []byte
	freed atomic.Bool
}

func allocNative(size int) (*nativeRegion, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return &nativeRegion{bytes: b}, nil
}

// free is idempotent: only the first caller actually unmaps the region.
func (r *nativeRegion) free() {
	if !r.freed.CompareAndSwap(false, true) {
		return
	}
	_ = unix.Munmap(r.bytes)
}

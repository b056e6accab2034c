// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package segbuf

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

// nativeRegion is a pinned VirtualAlloc region backing one BufferGroup of
// BackingNative. It is never touched by the Go garbage collector.
type nativeRegion struct {
	addr  uintptr
	bytes []byte
	freed atomic.Bool
}

func allocNative(size int) (*nativeRegion, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return &nativeRegion{addr: addr, bytes: unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)}, nil
}

// free is idempotent: only the first caller actually releases the region.
func (r *nativeRegion) free() {
	if !r.freed.CompareAndSwap(false, true) {
		return
	}
	_ = windows.VirtualFree(r.addr, 0, windows.MEM_RELEASE)
}

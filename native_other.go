// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !unix && !windows

package segbuf

import "sync/atomic"

// nativeRegion falls back to a plain heap allocation on targets without a
// pinned/native memory facility wired up here (js/wasm, plan9). Groups
// are still tagged BackingNative by callers; only the underlying
// allocation differs.
type nativeRegion struct {
	bytes []byte
	freed atomic.Bool
}

func allocNative(size int) (*nativeRegion, error) {
	return &nativeRegion{bytes: make([]byte, size)}, nil
}

func (r *nativeRegion) free() {
	r.freed.Store(true)
}

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package internal

// AvailableSystemMemory returns 0 on platforms where a cheap free-memory
// query isn't wired up. Callers treat 0 as "unknown" and fall back to
// the fixed absolute capacity ceiling.
func AvailableSystemMemory() int64 {
	return 0
}

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package internal

import "golang.org/x/sys/unix"

// AvailableSystemMemory returns an estimate of currently-free physical
// memory in bytes, or 0 if it could not be determined. Callers treat 0
// as "unknown" and skip the constraint.
func AvailableSystemMemory() int64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return int64(info.Freeram) * int64(info.Unit)
}

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build amd64 || arm64 || riscv64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || s390x || sparc64 || wasm

package internal

// Is64BitHost is true when the target architecture has a 64-bit word
// size; the absolute capacity ceiling is then not clamped to
// math.MaxInt32 (see wordsize_32.go).
const Is64BitHost = true

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build 386 || arm || mips || mipsle || ppc || s390 || armbe || mipsbe || riscv32

package internal

// Is64BitHost is false on 32-bit architectures. Callers use it to clamp
// the absolute capacity ceiling to math.MaxInt32 instead of 8 GiB.
const Is64BitHost = false

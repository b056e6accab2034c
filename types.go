// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import "net"

// Buffers is an alias for net.Buffers, used by CopyTo/CopyToContext to
// batch a stream's segments into a single vectored write.
type Buffers = net.Buffers

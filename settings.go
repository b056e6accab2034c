// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"code.streamforge.dev/segbuf/internal"
)

// ZeroBufferBehavior selects when a released segment's bytes are cleared
// before the slot can be rented again.
type ZeroBufferBehavior uint8

const (
	// ZeroNone never clears a released segment's bytes. Fastest, but a
	// subsequent renter can observe the previous tenant's data until it
	// overwrites the segment itself.
	ZeroNone ZeroBufferBehavior = iota
	// ZeroOnRelease clears a segment's bytes synchronously before the
	// slot is marked free, inline on the releasing goroutine.
	ZeroOnRelease
	// ZeroOutOfBand marks the slot free immediately and hands the
	// segment to a background worker to be cleared, trading a window
	// where a fast re-renter could observe stale bytes in exchange for
	// the releasing goroutine never blocking on a clear.
	ZeroOutOfBand
)

// String implements fmt.Stringer.
func (z ZeroBufferBehavior) String() string {
	switch z {
	case ZeroNone:
		return "none"
	case ZeroOnRelease:
		return "on-release"
	case ZeroOutOfBand:
		return "out-of-band"
	default:
		return "unknown"
	}
}

// defaultAbsoluteMaxCapacity is the hard ceiling on any single stream's
// capacity on a 64-bit host: 8 GiB. 32-bit hosts are clamped to
// math.MaxInt32 instead, since a slice length cannot exceed it there.
const defaultAbsoluteMaxCapacity = 8 << 30

// Settings controls a BufferPool's (and, by inheritance, a SegmentStream's)
// behavior. Use NewSettings for defaults, then the With* methods, which
// return a modified copy.
type Settings struct {
	// InitialCapacity is the number of bytes a SegmentStream pre-rents
	// at construction, rather than growing lazily from zero on first
	// write. Zero means "start empty".
	InitialCapacity int64
	// MaximumCapacity bounds how large a single stream may grow, in
	// bytes. Zero means "use the process-wide absolute ceiling".
	MaximumCapacity int64
	// ZeroPolicy selects when released segments are cleared.
	ZeroPolicy ZeroBufferBehavior
	// PreferNative requests native (pinned, non-GC) backing for groups
	// allocated after this setting takes effect, when native buffers
	// have been enabled on the owning pool.
	PreferNative bool
}

// NewSettings returns the package default Settings: no pre-rented
// capacity, no explicit maximum (falls back to the absolute ceiling),
// ZeroOutOfBand, heap-backed.
func NewSettings() Settings {
	return Settings{
		InitialCapacity: 0,
		MaximumCapacity: 0,
		ZeroPolicy:      ZeroOutOfBand,
		PreferNative:    false,
	}
}

// WithInitialCapacity returns a copy of s with InitialCapacity set.
func (s Settings) WithInitialCapacity(n int64) Settings {
	s.InitialCapacity = n
	return s
}

// WithMaximumCapacity returns a copy of s with MaximumCapacity set.
func (s Settings) WithMaximumCapacity(n int64) Settings {
	s.MaximumCapacity = n
	return s
}

// WithZeroPolicy returns a copy of s with ZeroPolicy set.
func (s Settings) WithZeroPolicy(z ZeroBufferBehavior) Settings {
	s.ZeroPolicy = z
	return s
}

// WithPreferNative returns a copy of s with PreferNative set.
func (s Settings) WithPreferNative(v bool) Settings {
	s.PreferNative = v
	return s
}

func validateSettings(s Settings) error {
	if s.InitialCapacity < 0 {
		return errors.Wrap(ErrInvalidArgument, "negative InitialCapacity")
	}
	if s.MaximumCapacity < 0 {
		return errors.Wrap(ErrInvalidArgument, "negative MaximumCapacity")
	}
	if s.MaximumCapacity > 0 && s.MaximumCapacity > absoluteMax() {
		return errors.Wrap(ErrInvalidArgument, "MaximumCapacity exceeds absolute ceiling")
	}
	if s.MaximumCapacity > 0 && s.InitialCapacity > s.MaximumCapacity {
		return errors.Wrap(ErrInvalidArgument, "InitialCapacity exceeds MaximumCapacity")
	}
	if s.InitialCapacity > absoluteMax() {
		return errors.Wrap(ErrInvalidArgument, "InitialCapacity exceeds absolute ceiling")
	}
	return nil
}

// effectiveMax returns the capacity ceiling a stream created with s
// should enforce.
func (s Settings) effectiveMax() int64 {
	if s.MaximumCapacity > 0 {
		return s.MaximumCapacity
	}
	return absoluteMax()
}

var absoluteMaxOnce struct {
	sync.Once
	v int64
}

// absoluteMax is the process-wide hard ceiling, computed once: the
// smallest of defaultAbsoluteMaxCapacity, currently available system
// memory (when it can be determined), and (on a 32-bit host) MaxInt32.
func absoluteMax() int64 {
	absoluteMaxOnce.Do(func() {
		v := int64(defaultAbsoluteMaxCapacity)
		if avail := internal.AvailableSystemMemory(); avail > 0 && avail < v {
			v = avail
		}
		if !internal.Is64BitHost {
			if v > math.MaxInt32 {
				v = math.MaxInt32
			}
		}
		absoluteMaxOnce.v = v
	})
	return absoluteMaxOnce.v
}

// globalDefaults is the process-wide Settings DefaultPool is constructed
// from (NewBufferPool with the zero Settings uses NewSettings instead,
// not these). It is sealed (write-once) the first time any stream is
// created anywhere in the process, mirroring the native-buffer latch.
var (
	globalMu         sync.Mutex
	globalDefaults   = NewSettings()
	anyStreamCreated atomic.Bool
)

// SetGlobalDefaultSettings replaces the process-wide default Settings.
// It returns ErrInvalidOperation once any SegmentStream has been created
// anywhere in the process: defaults are a boot-time knob, not a runtime
// one, since changing them mid-flight would leave existing streams and
// pools with heterogeneous unwritten assumptions.
func SetGlobalDefaultSettings(s Settings) error {
	if err := validateSettings(s); err != nil {
		return err
	}
	if anyStreamCreated.Load() {
		return errors.Wrap(ErrInvalidOperation, "default settings already sealed")
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if anyStreamCreated.Load() {
		return errors.Wrap(ErrInvalidOperation, "default settings already sealed")
	}
	globalDefaults = s
	return nil
}

// currentGlobalDefaults returns a copy of the process-wide default Settings.
func currentGlobalDefaults() Settings {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalDefaults
}

func markStreamCreated() {
	anyStreamCreated.Store(true)
}

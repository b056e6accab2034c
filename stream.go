// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SegmentStream is a growable, seekable byte stream backed by Segments
// rented from a BufferPool. It implements io.Reader, io.Writer,
// io.ByteReader, io.ByteWriter, io.Seeker, io.ReaderFrom, io.WriterTo,
// and io.Closer.
//
// A SegmentStream is not safe for concurrent use by multiple goroutines,
// the same convention bytes.Buffer uses; callers sharing one must
// serialize access themselves.
type SegmentStream struct {
	mu sync.Mutex

	pool         *BufferPool
	preferNative bool
	zeroPolicy   ZeroBufferBehavior
	maxCapacity  int64

	segments []*Segment
	length   int64
	position int64

	closed atomic.Bool
}

// Option configures a SegmentStream at construction time.
type Option func(*streamConfig)

type streamConfig struct {
	settings Settings
}

// WithSettings overrides the Settings a stream would otherwise inherit
// from its pool's construction-time Settings.
func WithSettings(s Settings) Option {
	return func(c *streamConfig) { c.settings = s }
}

// NewSegmentStream creates a SegmentStream renting from pool. pool must
// not be nil. If cfg.settings.InitialCapacity is nonzero the stream
// pre-rents that many bytes' worth of segments immediately rather than
// growing lazily on first write; a failure to pre-rent (e.g. the pool
// is out of capacity) is logged and leaves the stream with whatever
// partial capacity it managed to claim, since a constructor with no
// error return cannot surface it to the caller and the stream remains
// perfectly usable at reduced capacity — Write will simply retry the
// grow on demand.
func NewSegmentStream(pool *BufferPool, opts ...Option) *SegmentStream {
	cfg := streamConfig{settings: pool.settings}
	for _, opt := range opts {
		opt(&cfg)
	}
	markStreamCreated()
	pool.nativeSealed.Store(true)
	s := &SegmentStream{
		pool:         pool,
		preferNative: cfg.settings.PreferNative,
		zeroPolicy:   cfg.settings.ZeroPolicy,
		maxCapacity:  cfg.settings.effectiveMax(),
	}
	if initial := cfg.settings.InitialCapacity; initial > 0 {
		if initial > s.maxCapacity {
			initial = s.maxCapacity
		}
		if err := s.resizeSegments(initial); err != nil {
			pool.log.Warn("initial capacity pre-rent failed, stream will grow lazily",
				zap.Int64("requested", initial), zap.Error(err))
		}
	}
	return s
}

// NewSegmentStreamPool is a convenience constructor that creates a fresh
// SegmentStream against the process-wide DefaultPool.
func NewSegmentStreamPool(opts ...Option) *SegmentStream {
	return NewSegmentStream(DefaultPool(), opts...)
}

func (s *SegmentStream) checkOpen() error {
	if s.closed.Load() {
		return ErrObjectDisposed
	}
	return nil
}

// Capacity returns the stream's current allocated capacity in bytes.
func (s *SegmentStream) Capacity() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.segments)) * DefaultSegmentSize
}

// Len returns the stream's current logical length in bytes.
func (s *SegmentStream) Len() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.length
}

// Position returns the current read/write cursor offset.
func (s *SegmentStream) Position() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// SetPosition moves the cursor to an absolute offset. Unlike Seek it
// never returns io.EOF-style results; pos may exceed the current
// length, matching os.File semantics for a subsequent Write, but it may
// not exceed the stream's maximum capacity.
func (s *SegmentStream) SetPosition(pos int64) error {
	if pos < 0 {
		return errors.Wrap(ErrInvalidArgument, "negative position")
	}
	if pos > s.maxCapacity {
		return errors.Wrap(ErrInvalidArgument, "position past maximum capacity")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.position = pos
	return nil
}

// SetCapacity grows or shrinks the stream's segment count directly. It
// rejects a capacity below the current length or above the stream's
// maximum, without consulting the maximum-capacity growth path that
// Write and ReadFrom use internally.
func (s *SegmentStream) SetCapacity(n int64) error {
	if n < 0 || n > s.maxCapacity {
		return errors.Wrap(ErrInvalidArgument, "capacity out of range")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if n < s.length {
		return errors.Wrap(ErrInvalidArgument, "capacity below current length")
	}
	return s.resizeSegments(n)
}

// SetLength sets the stream's logical length. Growing the length zeroes
// the newly-visible gap; shrinking it releases no segments (use
// SetCapacity for that), matching the distinction between a file's size
// and its allocated blocks.
func (s *SegmentStream) SetLength(n int64) error {
	if n < 0 {
		return errors.Wrap(ErrInvalidArgument, "negative length")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if n > s.maxCapacity {
		return errors.Wrap(ErrOutOfCapacity, "length exceeds maximum capacity")
	}
	if n > s.capacityLocked() {
		if err := s.resizeSegments(n); err != nil {
			return err
		}
	}
	if n > s.length {
		s.zeroRange(s.length, n)
	}
	s.length = n
	return nil
}

func (s *SegmentStream) capacityLocked() int64 {
	return int64(len(s.segments)) * DefaultSegmentSize
}

// ensureCapacity grows the stream, under the maximum-capacity ceiling,
// so that at least n bytes are addressable. Called from Write/ReadFrom.
func (s *SegmentStream) ensureCapacity(n int64) error {
	if n > s.maxCapacity {
		return errors.Wrap(ErrOutOfCapacity, "write would exceed maximum capacity")
	}
	if n <= s.capacityLocked() {
		return nil
	}
	return s.resizeSegments(n)
}

// resizeSegments grows or shrinks the segment list to cover at least n
// bytes (rounding up to whole segments), with no maximum-capacity check
// of its own.
func (s *SegmentStream) resizeSegments(n int64) error {
	wantSegs := int((n + DefaultSegmentSize - 1) / DefaultSegmentSize)
	have := len(s.segments)
	switch {
	case wantSegs > have:
		need := wantSegs - have
		for need > 0 {
			run := need
			if run > GroupSize {
				run = GroupSize
			}
			segs, err := s.pool.rent(run, s.preferNative)
			if err != nil {
				return err
			}
			for _, seg := range segs {
				seg.offset = int64(len(s.segments)) * DefaultSegmentSize
				s.segments = append(s.segments, seg)
			}
			need -= run
		}
	case wantSegs < have:
		trailing := s.segments[wantSegs:]
		if err := s.pool.release(trailing, s.zeroPolicy); err != nil {
			return err
		}
		s.segments = s.segments[:wantSegs]
	}
	return nil
}

// zeroRange clears stream-local bytes in [from, to), which must already
// be within the current capacity.
func (s *SegmentStream) zeroRange(from, to int64) {
	for from < to {
		segIdx := int(from / DefaultSegmentSize)
		segOff := from % DefaultSegmentSize
		n := DefaultSegmentSize - segOff
		if int64(segIdx)*DefaultSegmentSize+DefaultSegmentSize > to {
			n = to - from
		}
		clear(s.segments[segIdx].data[segOff : segOff+n])
		from += n
	}
}

// Write implements io.Writer. Writing past the current length first
// zeroes any gap between the old length and the write's start offset,
// so a later read of the gap always observes zero bytes.
func (s *SegmentStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	end := s.position + int64(len(p))
	if err := s.ensureCapacity(end); err != nil {
		return 0, err
	}
	if s.position > s.length {
		s.zeroRange(s.length, s.position)
	}
	s.writeAt(s.position, p)
	if end > s.length {
		s.length = end
	}
	s.position = end
	return len(p), nil
}

func (s *SegmentStream) writeAt(offset int64, p []byte) {
	for len(p) > 0 {
		segIdx := int(offset / DefaultSegmentSize)
		segOff := offset % DefaultSegmentSize
		n := copy(s.segments[segIdx].data[segOff:], p)
		s.segments[segIdx].zeroed = false
		p = p[n:]
		offset += int64(n)
	}
}

// WriteByte implements io.ByteWriter.
func (s *SegmentStream) WriteByte(c byte) error {
	_, err := s.Write([]byte{c})
	return err
}

// Read implements io.Reader.
func (s *SegmentStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if s.position >= s.length {
		return 0, io.EOF
	}
	avail := s.length - s.position
	n := int64(len(p))
	if n > avail {
		n = avail
	}
	s.readAt(s.position, p[:n])
	s.position += n
	return int(n), nil
}

func (s *SegmentStream) readAt(offset int64, p []byte) {
	for len(p) > 0 {
		segIdx := int(offset / DefaultSegmentSize)
		segOff := offset % DefaultSegmentSize
		n := copy(p, s.segments[segIdx].data[segOff:])
		p = p[n:]
		offset += int64(n)
	}
}

// ReadByte implements io.ByteReader.
func (s *SegmentStream) ReadByte() (byte, error) {
	var b [1]byte
	_, err := s.Read(b[:])
	return b[0], err
}

// Seek implements io.Seeker. A resulting negative offset is rejected;
// seeking past the current length is allowed and does not itself grow
// the stream.
func (s *SegmentStream) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = s.position
	case io.SeekEnd:
		base = s.length
	default:
		return 0, errors.Wrap(ErrInvalidArgument, "unknown whence")
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, errors.Wrap(ErrInvalidArgument, "negative resulting position")
	}
	s.position = newPos
	return newPos, nil
}

// ToArray returns a copy of the stream's logical bytes, [0, Len()).
func (s *SegmentStream) ToArray() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]byte, s.length)
	s.readAt(0, out)
	return out, nil
}

// WriteTo implements io.WriterTo: it writes the stream's whole logical
// content, [0, Len()), to w. The position is left unchanged.
func (s *SegmentStream) WriteTo(w io.Writer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	var total int64
	for pos := int64(0); pos < s.length; {
		segIdx := int(pos / DefaultSegmentSize)
		segOff := pos % DefaultSegmentSize
		end := int64(segOff) + (s.length - pos)
		if end > DefaultSegmentSize {
			end = DefaultSegmentSize
		}
		chunk := s.segments[segIdx].data[segOff:end]
		n, err := w.Write(chunk)
		total += int64(n)
		pos += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// CopyTo batches the unread portion of the stream into a single
// vectored write (net.Buffers), instead of one Write call per segment.
// It advances the position by the number of bytes actually written.
func (s *SegmentStream) CopyTo(w io.Writer) (int64, error) {
	return s.CopyToContext(context.Background(), w)
}

// CopyToContext is CopyTo with ctx checked once, before the copy starts.
// The copy itself is a single net.Buffers.WriteTo call, which does not
// accept a context, so a cancellation during the write is not observed.
func (s *SegmentStream) CopyToContext(ctx context.Context, w io.Writer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var bufs Buffers
	remaining := s.length - s.position
	pos := s.position
	for remaining > 0 {
		segIdx := int(pos / DefaultSegmentSize)
		segOff := pos % DefaultSegmentSize
		n := int64(DefaultSegmentSize) - segOff
		if n > remaining {
			n = remaining
		}
		bufs = append(bufs, s.segments[segIdx].data[segOff:int64(segOff)+n])
		pos += n
		remaining -= n
	}

	n, err := bufs.WriteTo(w)
	s.position += n
	return n, err
}

// ReadFrom implements io.ReaderFrom: it appends bytes read from r at
// the current position, growing the stream as needed, until r returns
// io.EOF.
func (s *SegmentStream) ReadFrom(r io.Reader) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var total int64
	chunk := make([]byte, DefaultSegmentSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			end := s.position + int64(n)
			if ensureErr := s.ensureCapacity(end); ensureErr != nil {
				return total, ensureErr
			}
			if s.position > s.length {
				s.zeroRange(s.length, s.position)
			}
			s.writeAt(s.position, chunk[:n])
			if end > s.length {
				s.length = end
			}
			s.position = end
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Close releases every segment this stream holds back to its pool.
// Close is idempotent; a second call is a no-op returning nil.
func (s *SegmentStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.pool.release(s.segments, s.zeroPolicy)
	s.segments = nil
	s.length = 0
	s.position = 0
	return err
}

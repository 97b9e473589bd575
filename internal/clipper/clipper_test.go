package clipper

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/swingcam/internal/errors"
	"github.com/tphakala/swingcam/internal/video"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gatedSource is a video.Source whose frame production is controlled by the
// test. Each Read consumes one token and returns a frame whose payload is a
// monotonically increasing sequence number; with no tokens available Read
// blocks, parking the capture loop at a known point.
type gatedSource struct {
	tokens    chan struct{}
	stopped   chan struct{}
	readCalls atomic.Int64
	counter   atomic.Uint32
	width     int
	height    int
	closeOnce sync.Once
}

func newGatedSource() *gatedSource {
	return &gatedSource{
		tokens:  make(chan struct{}, 64),
		stopped: make(chan struct{}),
		width:   2,
		height:  2,
	}
}

func (s *gatedSource) Read() (video.Frame, bool) {
	s.readCalls.Add(1)
	select {
	case <-s.tokens:
	case <-s.stopped:
		return nil, false
	}
	n := s.counter.Add(1)
	frame := make(video.Frame, 4)
	binary.LittleEndian.PutUint32(frame, n)
	return frame, true
}

func (s *gatedSource) Width() int  { return s.width }
func (s *gatedSource) Height() int { return s.height }

func (s *gatedSource) Close() error {
	s.closeOnce.Do(func() { close(s.stopped) })
	return nil
}

// allow releases n frames to the capture loop.
func (s *gatedSource) allow(n int) {
	for range n {
		s.tokens <- struct{}{}
	}
}

// allowForever feeds frames until the source is closed, for test phases
// that no longer need step control.
func (s *gatedSource) allowForever() {
	go func() {
		for {
			select {
			case s.tokens <- struct{}{}:
			case <-s.stopped:
				return
			}
		}
	}()
}

// waitParked waits until the capture loop has fully completed n iterations
// and is blocked inside Read number n+1.
func waitParked(t *testing.T, s *gatedSource, completed int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.readCalls.Load() == int64(completed+1)
	}, 2*time.Second, time.Millisecond, "capture loop did not park after %d iterations", completed)
}

// frameSeq decodes the sequence number of a test frame; placeholder frames
// decode to 0.
func frameSeq(frame video.Frame) uint32 {
	return binary.LittleEndian.Uint32(frame)
}

// recordingWriter captures written frames in memory.
type recordingWriter struct {
	mu          sync.Mutex
	destination string
	frames      []video.Frame
	closed      bool
	failWrite   bool
}

func (w *recordingWriter) WriteFrame(frame video.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failWrite {
		return assert.AnError
	}
	w.frames = append(w.frames, frame)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *recordingWriter) sequence() []uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	seq := make([]uint32, len(w.frames))
	for i, f := range w.frames {
		seq[i] = frameSeq(f)
	}
	return seq
}

// recordingFactory hands out recordingWriters and remembers them in order.
type recordingFactory struct {
	mu       sync.Mutex
	writers  []*recordingWriter
	failOpen bool
	width    int
	height   int
	fps      int
}

func (f *recordingFactory) factory(destination string, width, height, fps int) (video.ClipWriter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.width, f.height, f.fps = width, height, fps
	if f.failOpen {
		return nil, assert.AnError
	}
	w := &recordingWriter{destination: destination}
	f.writers = append(f.writers, w)
	return w, nil
}

func (f *recordingFactory) writer(t *testing.T, index int) *recordingWriter {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.writers), index, "expected writer %d to have been opened", index)
	return f.writers[index]
}

func (f *recordingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writers)
}

func newTestClipper(t *testing.T, source *gatedSource, capacity, fps int) (*Clipper, *recordingFactory) {
	t.Helper()
	factory := &recordingFactory{}
	c, err := New(source, Config{
		Capacity:     capacity,
		EstimatedFPS: fps,
		NewWriter:    factory.factory,
	})
	require.NoError(t, err)
	return c, factory
}

func TestNewValidatesConfig(t *testing.T) {
	source := newGatedSource()
	defer source.Close() //nolint:errcheck

	_, err := New(source, Config{Capacity: 10, EstimatedFPS: 0, NewWriter: (&recordingFactory{}).factory})
	assert.Error(t, err, "zero fps should be rejected")

	_, err = New(source, Config{Capacity: 0, EstimatedFPS: 30, NewWriter: (&recordingFactory{}).factory})
	assert.Error(t, err, "zero capacity should be rejected")

	_, err = New(source, Config{Capacity: 10, EstimatedFPS: 30})
	assert.Error(t, err, "missing writer factory should be rejected")
}

func TestStopIsIdempotent(t *testing.T) {
	source := newGatedSource()
	c, _ := newTestClipper(t, source, 8, 30)

	assert.True(t, c.IsActive())

	source.allowForever()
	c.Stop()
	assert.False(t, c.IsActive())

	// Second stop must return without error or blocking
	c.Stop()
	assert.False(t, c.IsActive())
}

func TestClipAfterStopReturnsInactive(t *testing.T) {
	source := newGatedSource()
	c, factory := newTestClipper(t, source, 8, 30)

	source.allowForever()
	c.Stop()

	err := c.Clip(1000, "late.mp4")
	assert.ErrorIs(t, err, ErrClipperInactive)
	assert.True(t, errors.HasCategory(err, errors.CategoryState))
	assert.Zero(t, factory.count(), "no writer should be opened for a rejected request")
}

func TestClipRejectsNegativeDuration(t *testing.T) {
	source := newGatedSource()
	c, _ := newTestClipper(t, source, 8, 30)

	err := c.Clip(-1, "bad.mp4")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrClipperInactive)

	source.allowForever()
	c.Stop()
}

func TestClipSelectsMostRecentWindow(t *testing.T) {
	// estimated fps 30 means 1000ms rounds to 30 frames
	source := newGatedSource()
	c, factory := newTestClipper(t, source, 60, 30)

	source.allow(60)
	waitParked(t, source, 60)

	require.NoError(t, c.Clip(1000, "window.mp4"))
	source.allow(1)
	waitParked(t, source, 61)

	w := factory.writer(t, 0)
	seq := w.sequence()
	require.Len(t, seq, 30, "1000ms at 30fps should select 30 frames")

	// The request is processed after frame 61 is inserted, so the newest
	// written frame is 61 and the window is the 30 frames before it,
	// oldest first.
	assert.Equal(t, uint32(61), seq[len(seq)-1])
	for i, n := range seq {
		assert.Equal(t, uint32(32+i), n, "frames must be written oldest to newest")
	}
	assert.True(t, w.closed, "writer must be finalized")
	assert.Equal(t, "window.mp4", w.destination)

	source.allowForever()
	c.Stop()
}

func TestClipLongerThanHistoryIsClamped(t *testing.T) {
	source := newGatedSource()
	c, factory := newTestClipper(t, source, 10, 30)

	source.allow(10)
	waitParked(t, source, 10)

	// 100000ms at 30fps implies 3000 frames, far beyond the 10 retained
	require.NoError(t, c.Clip(100000, "all.mp4"))
	source.allow(1)
	waitParked(t, source, 11)

	seq := factory.writer(t, 0).sequence()
	assert.Len(t, seq, 10, "clamped clip must use exactly the buffer capacity")
	assert.Equal(t, uint32(11), seq[len(seq)-1])

	source.allowForever()
	c.Stop()
}

func TestClipIncludesPlaceholdersBeforeWarmup(t *testing.T) {
	source := newGatedSource()
	c, factory := newTestClipper(t, source, 4, 30)

	// Only 2 real frames captured; the rest of the history is still
	// placeholder fill.
	source.allow(2)
	waitParked(t, source, 2)

	require.NoError(t, c.Clip(100000, "warmup.mp4"))
	source.allow(1)
	waitParked(t, source, 3)

	seq := factory.writer(t, 0).sequence()
	require.Len(t, seq, 4)
	assert.Equal(t, []uint32{0, 1, 2, 3}, seq, "oldest slot still holds the placeholder")

	source.allowForever()
	c.Stop()
}

func TestBackToBackClipsSeeOwnProcessingState(t *testing.T) {
	source := newGatedSource()
	c, factory := newTestClipper(t, source, 8, 30)

	source.allow(5)
	waitParked(t, source, 5)

	// Both requests queued before the loop drains either
	require.NoError(t, c.Clip(100, "first.mp4"))
	require.NoError(t, c.Clip(100, "second.mp4"))

	source.allow(2)
	waitParked(t, source, 7)

	require.Equal(t, 2, factory.count(), "both queued requests must complete")
	first := factory.writer(t, 0).sequence()
	second := factory.writer(t, 1).sequence()

	// 100ms at 30fps rounds to 3 frames. The first request is processed
	// after frame 6, the second after frame 7: each clip reflects the
	// buffer at its own processing instant, not at enqueue time.
	assert.Equal(t, []uint32{4, 5, 6}, first)
	assert.Equal(t, []uint32{5, 6, 7}, second)

	source.allowForever()
	c.Stop()
}

func TestEncodeFailureDoesNotStopCapture(t *testing.T) {
	source := newGatedSource()
	factory := &recordingFactory{failOpen: true}
	c, err := New(source, Config{
		Capacity:     8,
		EstimatedFPS: 30,
		NewWriter:    factory.factory,
	})
	require.NoError(t, err)

	source.allow(3)
	waitParked(t, source, 3)

	// This clip fails at writer open; the loop must log it and carry on
	require.NoError(t, c.Clip(100, "broken.mp4"))
	source.allow(1)
	waitParked(t, source, 4)
	assert.Zero(t, factory.count())

	factory.mu.Lock()
	factory.failOpen = false
	factory.mu.Unlock()

	require.NoError(t, c.Clip(100, "works.mp4"))
	source.allow(1)
	waitParked(t, source, 5)
	require.Equal(t, 1, factory.count(), "capture must keep serving clip requests after an encode failure")
	assert.True(t, factory.writer(t, 0).closed)

	source.allowForever()
	c.Stop()
}

func TestWriterOpenedWithSourceGeometry(t *testing.T) {
	source := newGatedSource()
	c, factory := newTestClipper(t, source, 4, 25)

	source.allow(1)
	waitParked(t, source, 1)
	require.NoError(t, c.Clip(200, "geometry.mp4"))
	source.allow(1)
	waitParked(t, source, 2)

	factory.mu.Lock()
	width, height, fps := factory.width, factory.height, factory.fps
	factory.mu.Unlock()
	assert.Equal(t, source.Width(), width)
	assert.Equal(t, source.Height(), height)
	assert.Equal(t, 25, fps)

	source.allowForever()
	c.Stop()
}

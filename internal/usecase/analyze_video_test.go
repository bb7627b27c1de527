package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hasbegun/argus/internal/domain/entity"
	"github.com/hasbegun/argus/internal/domain/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

type fakeSource struct {
	seconds []int
	idx     int
	closed  bool
}

func (s *fakeSource) Next() (int, gocv.Mat, bool) {
	if s.idx >= len(s.seconds) {
		return 0, gocv.Mat{}, false
	}
	sec := s.seconds[s.idx]
	s.idx++
	return sec, gocv.Mat{}, true
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	src *fakeSource
	err error
}

func (o *fakeOpener) Open(ctx context.Context, path string) (port.FrameSource, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.src, nil
}

type passthroughCorrector struct{}

func (passthroughCorrector) Correct(frame gocv.Mat) gocv.Mat { return gocv.Mat{} }

type fakeCorrectorFactory struct{}

func (fakeCorrectorFactory) ForVideo(ctx context.Context, path string) port.OrientationCorrector {
	return passthroughCorrector{}
}

// secondFromPath recovers the sampled second from a frame_<n>.jpg path.
func secondFromPath(p string) int {
	name := filepath.Base(p)
	name = strings.TrimPrefix(name, "frame_")
	name = strings.TrimSuffix(name, ".jpg")
	sec, _ := strconv.Atoi(name)
	return sec
}

type fakePreprocessor struct {
	failSeconds map[int]bool
}

func (f *fakePreprocessor) Enhance(frame gocv.Mat, destPath string) error {
	if f.failSeconds[secondFromPath(destPath)] {
		return entity.ErrEmptyFrame
	}
	return nil
}

type fakeVision struct {
	failSeconds map[int]bool
	// delayFor staggers latency so out-of-order completion is exercised.
	delayFor func(second int) time.Duration
}

func (f *fakeVision) AnalyzeFrame(ctx context.Context, framePath string, objectDescription string) (string, error) {
	sec := secondFromPath(framePath)
	if f.delayFor != nil {
		time.Sleep(f.delayFor(sec))
	}
	if f.failSeconds[sec] {
		return "", &entity.InferenceError{Op: "call backend", Err: fmt.Errorf("boom at %d", sec)}
	}
	return fmt.Sprintf("Answer: YES\nDescription: object at second %d\nConfidence: 8", sec), nil
}

func (f *fakeVision) Chat(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

func newAnalyzer(t *testing.T, opener *fakeOpener, pre *fakePreprocessor, vision *fakeVision) *AnalyzeVideoUseCase {
	t.Helper()
	pool := NewInferencePool(4)
	t.Cleanup(pool.Close)
	return NewAnalyzeVideoUseCase(
		opener,
		fakeCorrectorFactory{},
		pre,
		vision,
		pool,
		zap.NewNop(),
		AnalyzeVideoConfig{PendingFrames: 4},
	)
}

func testTask(t *testing.T) entity.VideoTask {
	t.Helper()
	return entity.VideoTask{
		VideoID:        "vid123",
		SourcePath:     "/nonexistent/vid123.mp4",
		FrameOutputDir: filepath.Join(t.TempDir(), "vid123"),
	}
}

func collect(t *testing.T, events <-chan entity.StreamEvent) []entity.StreamEvent {
	t.Helper()
	var got []entity.StreamEvent
	for ev := range events {
		got = append(got, ev)
	}
	return got
}

func TestStreamEmitsAllFramesInOrder(t *testing.T) {
	opener := &fakeOpener{src: &fakeSource{seconds: []int{0, 1, 2, 3, 4}}}
	// Later frames answer faster, so ordering only holds if the stream
	// enforces it.
	vision := &fakeVision{delayFor: func(second int) time.Duration {
		return time.Duration(5-second) * 10 * time.Millisecond
	}}
	uc := newAnalyzer(t, opener, &fakePreprocessor{}, vision)

	got := collect(t, uc.Stream(context.Background(), testTask(t), "a red car"))

	require.Len(t, got, 5)
	for i, ev := range got {
		assert.Equal(t, entity.StreamStatusSuccess, ev.Status)
		require.NotNil(t, ev.Frame)
		assert.Equal(t, i, ev.Frame.Second)
		assert.True(t, ev.Frame.IsMatch)
		assert.Equal(t, 8, ev.Frame.Confidence)
		assert.Equal(t, "/frames/vid123/frame_"+strconv.Itoa(i)+".jpg", ev.Frame.FramePath)
	}
	assert.True(t, opener.src.closed)
}

func TestStreamSkipsSingleInferenceFailure(t *testing.T) {
	opener := &fakeOpener{src: &fakeSource{seconds: []int{0, 1, 2, 3}}}
	vision := &fakeVision{failSeconds: map[int]bool{2: true}}
	uc := newAnalyzer(t, opener, &fakePreprocessor{}, vision)

	got := collect(t, uc.Stream(context.Background(), testTask(t), "a dog"))

	require.Len(t, got, 3)
	var seconds []int
	for _, ev := range got {
		require.Equal(t, entity.StreamStatusSuccess, ev.Status)
		seconds = append(seconds, ev.Frame.Second)
	}
	assert.Equal(t, []int{0, 1, 3}, seconds)
}

func TestStreamSkipsPreprocessFailure(t *testing.T) {
	opener := &fakeOpener{src: &fakeSource{seconds: []int{0, 1, 2}}}
	pre := &fakePreprocessor{failSeconds: map[int]bool{1: true}}
	uc := newAnalyzer(t, opener, pre, &fakeVision{})

	got := collect(t, uc.Stream(context.Background(), testTask(t), "a cat"))

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Frame.Second)
	assert.Equal(t, 2, got[1].Frame.Second)
}

func TestStreamOpenFailureIsTerminal(t *testing.T) {
	opener := &fakeOpener{err: &entity.StorageError{
		Op:  "open video",
		Err: fmt.Errorf("no such file"),
	}}
	uc := newAnalyzer(t, opener, &fakePreprocessor{}, &fakeVision{})

	got := collect(t, uc.Stream(context.Background(), testTask(t), "a bike"))

	require.Len(t, got, 1)
	assert.Equal(t, entity.StreamStatusError, got[0].Status)
	assert.Contains(t, got[0].Message, "open video")
	assert.Nil(t, got[0].Frame)
}

func TestStreamStopsOnCancellation(t *testing.T) {
	seconds := make([]int, 100)
	for i := range seconds {
		seconds[i] = i
	}
	opener := &fakeOpener{src: &fakeSource{seconds: seconds}}
	vision := &fakeVision{delayFor: func(int) time.Duration { return 5 * time.Millisecond }}
	uc := newAnalyzer(t, opener, &fakePreprocessor{}, vision)

	ctx, cancel := context.WithCancel(context.Background())
	events := uc.Stream(ctx, testTask(t), "a truck")

	// Take a couple of events, then walk away.
	<-events
	<-events
	cancel()

	done := make(chan struct{})
	go func() {
		for range events {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not terminate after cancellation")
	}
	assert.Less(t, opener.src.idx, 100, "producer should stop early")
}

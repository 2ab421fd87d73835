package audio

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
)

func testBuffer(frames int) *pcm.Buffer {
	return &pcm.Buffer{
		Samples:    make([]float32, frames),
		SampleRate: pcm.SampleRate,
		Channels:   pcm.Channels,
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		input   string
		want    Backend
		wantErr bool
	}{
		{"", BackendAuto, false},
		{"auto", BackendAuto, false},
		{"OTO", BackendOto, false},
		{" mock ", BackendMock, false},
		{"alsa", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBackend(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBackend(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBackend(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewMockBackend(t *testing.T) {
	ctx, err := New(BackendMock)
	if err != nil {
		t.Fatalf("New(mock) failed: %v", err)
	}
	defer ctx.Close()

	if _, ok := ctx.(*MockContext); !ok {
		t.Errorf("Expected *MockContext, got %T", ctx)
	}
	if ctx.SampleRate() != pcm.SampleRate {
		t.Errorf("Expected sample rate %d, got %d", pcm.SampleRate, ctx.SampleRate())
	}
}

func TestIsCI(t *testing.T) {
	for _, v := range []string{"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE", "DRONE"} {
		t.Setenv(v, "")
	}
	t.Setenv("AVAYE_MOCK_AUDIO", "")

	if IsCI() {
		t.Error("IsCI should be false with no CI variables set")
	}

	t.Setenv("CI", "false")
	if IsCI() {
		t.Error("CI=false should not count as CI")
	}

	t.Setenv("GITHUB_ACTIONS", "true")
	if !IsCI() {
		t.Error("GITHUB_ACTIONS=true should count as CI")
	}
}

func TestMockSource_ManualFinish(t *testing.T) {
	ctx := NewMockContext()
	defer ctx.Close()

	src, err := ctx.NewSource(testBuffer(2400))
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	if d := src.Duration(); d != 100*time.Millisecond {
		t.Errorf("Expected 100ms duration, got %v", d)
	}

	var ended atomic.Int32
	if err := src.Start(func() { ended.Add(1) }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Start(nil); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Expected ErrAlreadyStarted, got %v", err)
	}

	mock := ctx.Last()
	if !mock.Playing() {
		t.Error("Source should be playing after Start")
	}
	if !mock.Finish() {
		t.Error("First Finish should invoke the callback")
	}
	if mock.Finish() {
		t.Error("Second Finish should not invoke the callback")
	}
	if got := ended.Load(); got != 1 {
		t.Errorf("Expected 1 completion, got %d", got)
	}
}

func TestMockSource_StopSuppressesFinish(t *testing.T) {
	ctx := NewMockContext()
	defer ctx.Close()

	src, _ := ctx.NewSource(testBuffer(10))
	called := false
	_ = src.Start(func() { called = true })

	if err := src.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Errorf("Second Stop should be a no-op, got %v", err)
	}

	mock := ctx.Last()
	if mock.Finish() {
		t.Error("Finish after Stop should not invoke the callback")
	}
	if called {
		t.Error("Callback invoked for a stopped source")
	}
	if !mock.Stopped() {
		t.Error("Source should report stopped")
	}
}

func TestTimedMockContext(t *testing.T) {
	ctx := NewTimedMockContext(10.0)
	defer ctx.Close()

	// 200ms of audio at 10x speed
	src, _ := ctx.NewSource(testBuffer(4800))
	done := make(chan struct{})
	if err := src.Start(func() { close(done) }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed source did not finish")
	}
}

func TestMockContext_Failures(t *testing.T) {
	ctx := NewMockContext()

	ctx.ResumeErr = errors.New("device busy")
	_ = ctx.Suspend()
	if err := ctx.Resume(); err == nil {
		t.Error("Expected Resume to fail")
	}
	if !ctx.Suspended() {
		t.Error("Context should stay suspended after a failed Resume")
	}

	ctx.ResumeErr = nil
	if err := ctx.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if ctx.Suspended() {
		t.Error("Context should not be suspended after Resume")
	}

	ctx.SourceErr = errors.New("no buffers")
	if _, err := ctx.NewSource(testBuffer(1)); err == nil {
		t.Error("Expected NewSource to fail")
	}

	ctx.SourceErr = nil
	src, _ := ctx.NewSource(testBuffer(1))
	_ = src.Start(nil)

	_ = ctx.Close()
	if !ctx.Last().Stopped() {
		t.Error("Close should stop live sources")
	}
	if _, err := ctx.NewSource(testBuffer(1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

package chrome

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pdf-service/internal/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Chrome.UserDataDir = filepath.Join(os.TempDir(), "pdf-service-chrome-tests")
	cfg.Chrome.LaunchTimeout = 5 * time.Second
	return cfg
}

// fakeLauncher counts launches and hands out cancelable sessions.
type fakeLauncher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
	last  atomic.Pointer[session]
}

func (f *fakeLauncher) launch(cfg config.Config) (*session, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{ctx: ctx, cancel: cancel}
	f.last.Store(s)
	return s, nil
}

func newFakeBrowser(f *fakeLauncher) *Browser {
	b := NewBrowser(testConfig())
	b.launch = f.launch
	return b
}

func TestEnsureReady_ConcurrentCallersLaunchOnce(t *testing.T) {
	f := &fakeLauncher{delay: 50 * time.Millisecond}
	b := newFakeBrowser(f)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- b.EnsureReady(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("EnsureReady failed: %v", err)
		}
	}
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one launch, got %d", got)
	}
	if st := b.Stats(); !st.Launched || st.Launches != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestEnsureReady_IsIdempotent(t *testing.T) {
	f := &fakeLauncher{}
	b := newFakeBrowser(f)

	for i := 0; i < 3; i++ {
		if err := b.EnsureReady(context.Background()); err != nil {
			t.Fatalf("EnsureReady #%d: %v", i, err)
		}
	}
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("expected one launch, got %d", got)
	}
}

func TestEnsureReady_LaunchErrorIsWrappedAndNotCached(t *testing.T) {
	f := &fakeLauncher{err: errors.New("exec: not found")}
	b := newFakeBrowser(f)

	err := b.EnsureReady(context.Background())
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got %v", err)
	}
	if b.Stats().Launched {
		t.Fatalf("failed launch must not leave a handle behind")
	}

	f.err = nil
	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatalf("expected later call to launch again, got %v", err)
	}
	if got := f.calls.Load(); got != 2 {
		t.Fatalf("expected two launch attempts, got %d", got)
	}
}

func TestEnsureReady_CallerContextDoesNotAbortSharedLaunch(t *testing.T) {
	f := &fakeLauncher{delay: 100 * time.Millisecond}
	b := newFakeBrowser(f)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.EnsureReady(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected caller deadline, got %v", err)
	}

	// the launch keeps going and the next caller joins or reuses it
	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("expected one launch, got %d", got)
	}
}

func TestShutdown_NoopAndRelaunch(t *testing.T) {
	f := &fakeLauncher{}
	b := newFakeBrowser(f)

	if err := b.Shutdown(); err != nil {
		t.Fatalf("Shutdown without browser should be a no-op: %v", err)
	}

	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	s := b.current()
	if err := b.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if s.ctx.Err() == nil {
		t.Fatalf("expected session context to be canceled on shutdown")
	}
	if b.Stats().Launched {
		t.Fatalf("expected handle to be cleared")
	}
	if err := b.Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}

	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady after shutdown: %v", err)
	}
	if got := f.calls.Load(); got != 2 {
		t.Fatalf("expected relaunch after shutdown, got %d launches", got)
	}
}

func TestShutdown_DuringLaunchClosesLateSession(t *testing.T) {
	f := &fakeLauncher{delay: 100 * time.Millisecond}
	b := newFakeBrowser(f)

	done := make(chan error, 1)
	go func() { done <- b.EnsureReady(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	if err := b.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrLaunch) {
			t.Fatalf("expected the interrupted launch to fail with ErrLaunch, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for launch")
	}

	if st := b.Stats(); st.Launched {
		t.Fatalf("handle must stay cleared after shutdown, got %+v", st)
	}
	s := f.last.Load()
	if s == nil || s.ctx.Err() == nil {
		t.Fatalf("expected the late session to be closed")
	}

	// a later caller starts a fresh browser
	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady after shutdown: %v", err)
	}
	if got := f.calls.Load(); got != 2 {
		t.Fatalf("expected a second launch, got %d", got)
	}
}

func TestCurrent_DropsDeadSession(t *testing.T) {
	f := &fakeLauncher{}
	b := newFakeBrowser(f)
	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}

	b.current().cancel()
	if b.current() != nil {
		t.Fatalf("expected dead session to be dropped")
	}
}

func TestDiscard_IgnoresStaleSession(t *testing.T) {
	f := &fakeLauncher{}
	b := newFakeBrowser(f)
	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	live := b.current()

	stale := &session{ctx: context.Background(), cancel: func() {}}
	b.discard(stale)
	if b.current() != live {
		t.Fatalf("discarding a stale session must keep the live one")
	}

	b.discard(live)
	if b.current() != nil {
		t.Fatalf("expected live session to be dropped")
	}
}

func TestLaunchChrome_ErrorWhenBinaryMissing(t *testing.T) {
	cfg := testConfig()
	cfg.Chrome.ExecPath = "/definitely/missing/chrome"

	b := NewBrowser(cfg)
	err := b.EnsureReady(context.Background())
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("expected ErrLaunch with missing chrome binary, got %v", err)
	}
}

func TestCreateProfileDir_DefaultAndCustomBase(t *testing.T) {
	cfg := testConfig()
	cfg.Chrome.UserDataDir = ""
	dir1, err := createProfileDir(cfg)
	if err != nil {
		t.Fatalf("createProfileDir default base failed: %v", err)
	}
	defer os.RemoveAll(dir1)
	if _, err := os.Stat(dir1); err != nil {
		t.Fatalf("expected created dir to exist: %v", err)
	}

	customBase := t.TempDir()
	cfg.Chrome.UserDataDir = customBase
	dir2, err := createProfileDir(cfg)
	if err != nil {
		t.Fatalf("createProfileDir custom base failed: %v", err)
	}
	defer os.RemoveAll(dir2)
	if filepath.Dir(dir2) != customBase {
		t.Fatalf("expected profile dir under custom base %q, got %q", customBase, dir2)
	}
}

func TestCreateProfileDir_InvalidBase(t *testing.T) {
	cfg := testConfig()
	cfg.Chrome.UserDataDir = "/dev/null/x"
	if _, err := createProfileDir(cfg); err == nil {
		t.Fatalf("expected error for invalid base dir")
	}
}

func TestSessionClose_RemovesProfileDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profile")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	canceled := false
	s := &session{ctx: context.Background(), cancel: func() { canceled = true }, profileDir: dir}
	if err := s.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !canceled {
		t.Fatalf("expected cancel to be called")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected profile dir removed, stat err=%v", err)
	}
}

func TestIsSessionInterrupted(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "target closed", err: errors.New("target closed"), want: true},
		{name: "websocket", err: errors.New("websocket: close 1006 (abnormal closure)"), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "normal error", err: errors.New("validation failed"), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSessionInterrupted(tc.err); got != tc.want {
				t.Fatalf("IsSessionInterrupted(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

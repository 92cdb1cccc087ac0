package chrome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/chromedp/chromedp"
	"golang.org/x/sync/singleflight"

	"pdf-service/internal/config"
	"pdf-service/internal/infra/logging"
)

// ErrLaunch signals that the browser process could not be started.
var ErrLaunch = errors.New("chrome launch failed")

var errShutdownDuringLaunch = errors.New("browser was shut down while launching")

// session is one running browser process.
type session struct {
	ctx        context.Context
	cancel     context.CancelFunc
	profileDir string
}

func (s *session) close() error {
	s.cancel()
	if s.profileDir == "" {
		return nil
	}
	return os.RemoveAll(s.profileDir)
}

type launchFunc func(cfg config.Config) (*session, error)

// Browser owns at most one headless Chrome process. The process is started
// on first use and shared by every render until Shutdown.
type Browser struct {
	cfg    config.Config
	launch launchFunc

	mu    sync.Mutex
	sess  *session
	gen   uint64 // bumped by Shutdown; a launch from an older generation is discarded
	group singleflight.Group

	launches  atomic.Int64
	openPages atomic.Int64
}

// Stats is a point-in-time view of the engine handle.
type Stats struct {
	Launched  bool  `json:"launched"`
	Launches  int64 `json:"launches"`
	OpenPages int64 `json:"open_pages"`
}

// NewBrowser returns a Browser that has not launched Chrome yet.
func NewBrowser(cfg config.Config) *Browser {
	return &Browser{cfg: cfg, launch: launchChrome}
}

// EnsureReady starts Chrome unless it is already running. Concurrent callers
// share a single in-flight launch.
func (b *Browser) EnsureReady(ctx context.Context) error {
	_, err := b.acquire(ctx)
	return err
}

func (b *Browser) current() *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sess != nil && b.sess.ctx.Err() != nil {
		// the browser went away underneath us
		_ = b.sess.close()
		b.sess = nil
	}
	return b.sess
}

func (b *Browser) acquire(ctx context.Context) (*session, error) {
	if s := b.current(); s != nil {
		return s, nil
	}

	// The launch runs detached from ctx: a caller giving up must not kill the
	// process other waiters are about to share.
	ch := b.group.DoChan("launch", func() (any, error) {
		if s := b.current(); s != nil {
			return s, nil
		}
		b.mu.Lock()
		gen := b.gen
		b.mu.Unlock()

		logging.Info("Launching Chrome", "exec_path", b.cfg.Chrome.ExecPath)
		s, err := b.launch(b.cfg)
		if err != nil {
			logging.Error("Chrome launch failed", "error", err)
			return nil, err
		}
		b.launches.Add(1)
		engineLaunches.Inc()

		b.mu.Lock()
		if b.gen != gen {
			b.mu.Unlock()
			logging.Warn("Chrome launch finished after shutdown; closing it")
			if err := s.close(); err != nil {
				logging.Warn("Failed to clean up Chrome profile", "dir", s.profileDir, "error", err)
			}
			return nil, errShutdownDuringLaunch
		}
		b.sess = s
		b.mu.Unlock()
		return s, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLaunch, res.Err)
		}
		return res.Val.(*session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// discard drops s if it is still the current session.
func (b *Browser) discard(s *session) {
	b.mu.Lock()
	if b.sess != s {
		b.mu.Unlock()
		return
	}
	b.sess = nil
	b.mu.Unlock()

	if err := s.close(); err != nil {
		logging.Warn("Failed to clean up Chrome profile", "dir", s.profileDir, "error", err)
	}
}

// Shutdown terminates Chrome and clears the handle. A launch still in flight
// is closed as soon as it completes. It is a no-op when no browser is running,
// and a later render launches a new one.
func (b *Browser) Shutdown() error {
	b.mu.Lock()
	s := b.sess
	b.sess = nil
	b.gen++
	b.mu.Unlock()

	if s == nil {
		return nil
	}
	logging.Info("Shutting down Chrome")
	return s.close()
}

// Stats reports whether Chrome is running and how it has been used.
func (b *Browser) Stats() Stats {
	return Stats{
		Launched:  b.current() != nil,
		Launches:  b.launches.Load(),
		OpenPages: b.openPages.Load(),
	}
}

// launchChrome starts a headless Chrome process with a throwaway profile.
func launchChrome(cfg config.Config) (*session, error) {
	profileDir, err := createProfileDir(cfg)
	if err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		chromedp.WSURLReadTimeout(cfg.Chrome.LaunchTimeout),
		// Force software rendering; minimal containers have no GPU.
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.Chrome.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Chrome.ExecPath))
	}
	if cfg.Chrome.NoSandbox {
		opts = append(opts,
			chromedp.NoSandbox,
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	// The first Run allocates the browser. It must not get a deadline of its
	// own or the browser dies with it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		_ = os.RemoveAll(profileDir)
		return nil, err
	}

	return &session{ctx: browserCtx, cancel: cancel, profileDir: profileDir}, nil
}

// createProfileDir makes a fresh user-data directory under the configured base
// (or the system temp dir).
func createProfileDir(cfg config.Config) (string, error) {
	base := cfg.Chrome.UserDataDir
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o700); err != nil {
		return "", fmt.Errorf("cannot create profile base dir: %w", err)
	}
	dir, err := os.MkdirTemp(base, "chromedata-*")
	if err != nil {
		return "", fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	return dir, nil
}

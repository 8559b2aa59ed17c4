package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/chatlab/internal/pathutil"

	"github.com/gofrs/flock"
)

const (
	DefaultLockTimeout = 5 * time.Second
	DefaultLockRetry   = 50 * time.Millisecond
)

// FileLock is an advisory cross-process lock on a sidecar file.
type FileLock struct {
	fileLock   *flock.Flock
	lockPath   string
	owner      string
	acquiredAt time.Time
	mu         sync.RWMutex
}

type FileLockConfig struct {
	LockTimeout time.Duration
	LockRetry   time.Duration
}

func DefaultFileLockConfig() *FileLockConfig {
	return &FileLockConfig{
		LockTimeout: DefaultLockTimeout,
		LockRetry:   DefaultLockRetry,
	}
}

// LockPath is the sidecar lock file guarding path.
func LockPath(path string) string {
	return path + ".lock"
}

// NewFileLock blocks until the lock on lockPath is held, the timeout passes,
// or ctx is done. owner only appears in logs and errors.
func NewFileLock(ctx context.Context, owner, lockPath string, cfg *FileLockConfig) (*FileLock, error) {
	if cfg == nil {
		cfg = DefaultFileLockConfig()
	}
	if cfg.LockRetry <= 0 {
		cfg.LockRetry = DefaultLockRetry
	}

	if err := pathutil.EnsureParent(lockPath); err != nil {
		return nil, fmt.Errorf("prepare lock dir: %w", err)
	}

	fl := &FileLock{
		fileLock: flock.New(lockPath),
		lockPath: lockPath,
		owner:    owner,
	}

	lockCtx := ctx
	if cfg.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, cfg.LockTimeout)
		defer cancel()
	}

	locked, err := fl.fileLock.TryLockContext(lockCtx, cfg.LockRetry)
	if err != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("lock acquisition cancelled: %w", ctx.Err())
	}
	if err != nil || !locked {
		return nil, fmt.Errorf("%s is locked by another process (timeout after %v)", lockPath, cfg.LockTimeout)
	}

	fl.acquiredAt = time.Now()
	slog.Debug("File lock acquired", "owner", owner, "path", lockPath)

	return fl, nil
}

func (fl *FileLock) Unlock() {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.fileLock == nil {
		slog.Warn("FileLock already unlocked", "owner", fl.owner)
		return
	}

	if err := fl.fileLock.Unlock(); err != nil {
		slog.Error("Failed to release file lock", "owner", fl.owner, "path", fl.lockPath, "error", err)
	} else {
		slog.Debug("File lock released", "owner", fl.owner, "held_duration_ms", time.Since(fl.acquiredAt).Milliseconds())
	}

	fl.fileLock = nil
}

func (fl *FileLock) IsLocked() bool {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return fl.fileLock != nil
}

func (fl *FileLock) HeldDuration() time.Duration {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if fl.acquiredAt.IsZero() {
		return 0
	}
	return time.Since(fl.acquiredAt)
}

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mcpkit-dev/mcpkit/internal/mcperr"
)

const lockPollInterval = 50 * time.Millisecond

// lockEntry acquires an exclusive, advisory lock on dir's cache entry by
// creating a lockfile with O_EXCL, polling until ctx is cancelled. It
// returns an unlock function that removes the lockfile; callers must defer
// it unconditionally on success.
//
// A full file-locking syscall (flock) would work too, but an O_EXCL
// lockfile needs no platform-specific build tags and is the same mechanism
// the local store already uses to persist everything else.
func lockEntry(ctx context.Context, dir string) (func(), error) {
	path := filepath.Join(dir, ".lock")
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, mcperr.Wrap(mcperr.KindIO, "create cache lockfile", err)
		}
		select {
		case <-ctx.Done():
			return nil, mcperr.Wrap(mcperr.KindCancelled, fmt.Sprintf("waiting for lock on %s", dir), ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}
}

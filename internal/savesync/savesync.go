// Package savesync moves save data between a cartridge and the local Wine
// prefix. Each declared save path is copied as a whole subtree into a
// staging directory beside its destination and swapped in with a rename,
// so a crash mid-copy never corrupts the save that was already there.
//
// Callers serialize syncs per UUID; the session coordinator owns that rule.
package savesync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"physica/internal/fileutil"
	"physica/internal/logging"
	"physica/internal/metadata"
	"physica/internal/services"
)

// Result summarizes one sync pass.
type Result struct {
	Patterns int
	Missing  int
	Files    int
	Bytes    int64
	Duration time.Duration
}

// Syncer copies save subtrees between cartridge and prefix.
type Syncer struct {
	logger *slog.Logger
}

// New returns a Syncer logging through the provided logger.
func New(logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Syncer{logger: logging.NewComponentLogger(logger, "savesync")}
}

// SyncIn pulls cartridge saves into the local prefix before launch. The
// cartridge copy is authoritative on insertion: it carries progress made on
// other machines.
func (s *Syncer) SyncIn(ctx context.Context, mountPath, prefixDir string, patterns []string) (*Result, error) {
	src := filepath.Join(mountPath, metadata.SaveDataDir)
	return s.run(ctx, "sync-in", src, prefixDir, patterns)
}

// SyncOut pushes prefix saves back to the cartridge after a session. A
// cartridge that is gone or mounted read-only fails here, before any copy
// starts.
func (s *Syncer) SyncOut(ctx context.Context, mountPath, prefixDir string, patterns []string) (*Result, error) {
	if err := unix.Access(mountPath, unix.W_OK); err != nil {
		return &Result{}, services.Wrap(services.ErrSync, "savesync", "sync-out",
			fmt.Sprintf("cartridge at %s is not writable", mountPath), err)
	}
	dst := filepath.Join(mountPath, metadata.SaveDataDir)
	return s.run(ctx, "sync-out", prefixDir, dst, patterns)
}

func (s *Syncer) run(ctx context.Context, op, srcBase, dstBase string, patterns []string) (*Result, error) {
	start := time.Now()
	res := &Result{}

	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return res, services.Wrap(services.ErrSync, "savesync", op, "canceled", err)
		}
		rel := filepath.FromSlash(pattern)
		// Descriptors are validated on parse, but the copy loop is the last
		// line of defense against a pattern escaping either root.
		if !filepath.IsLocal(rel) {
			return res, services.Wrap(services.ErrValidation, "savesync", op, fmt.Sprintf("save path %q escapes the save root", pattern), nil)
		}
		src := filepath.Join(srcBase, rel)
		dst := filepath.Join(dstBase, rel)
		res.Patterns++

		info, err := os.Stat(src)
		if os.IsNotExist(err) {
			// First run for this location: nothing to copy yet, but the
			// destination directory must exist so the game can write into it.
			res.Missing++
			if mkErr := os.MkdirAll(dst, 0o755); mkErr != nil {
				return res, services.Wrap(services.ErrSync, "savesync", op, fmt.Sprintf("prepare %s", pattern), mkErr)
			}
			s.logger.Debug("save path not present at source", logging.String("direction", op), logging.String("pattern", pattern))
			continue
		}
		if err != nil {
			return res, services.Wrap(services.ErrSync, "savesync", op, fmt.Sprintf("stat %s", pattern), err)
		}

		if info.IsDir() {
			err = replaceTree(ctx, src, dst)
		} else {
			err = replaceFile(src, dst)
		}
		if err != nil {
			return res, services.Wrap(services.ErrSync, "savesync", op, fmt.Sprintf("copy %s", pattern), err)
		}

		if info.IsDir() {
			if files, bytes, statErr := fileutil.TreeStats(dst); statErr == nil {
				res.Files += files
				res.Bytes += bytes
			}
		} else {
			res.Files++
			res.Bytes += info.Size()
		}
	}

	res.Duration = time.Since(start)
	s.logger.Info("sync complete",
		logging.String("direction", op),
		logging.Int("patterns", res.Patterns),
		logging.Int("missing", res.Missing),
		logging.Int("files", res.Files),
		logging.Int64("bytes", res.Bytes),
		logging.Duration("elapsed", res.Duration),
	)
	return res, nil
}

// replaceTree copies src into a staging directory beside dst and swaps it
// into place. The previous dst only disappears once the full copy exists.
func replaceTree(ctx context.Context, src, dst string) error {
	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	stage, err := os.MkdirTemp(parent, "."+filepath.Base(dst)+".sync-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(stage)

	if err := fileutil.CopyTree(ctx, src, stage); err != nil {
		return err
	}
	if err := os.Chmod(stage, 0o755); err != nil {
		return err
	}
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	return os.Rename(stage, dst)
}

func replaceFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".sync-tmp")
	if err := fileutil.CopyFile(src, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

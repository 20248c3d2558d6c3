package reposync

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/models"
)

// syncTimeout bounds one whole sync attempt, clone or pull.
const syncTimeout = 5 * time.Minute

// Options control one sync attempt.
type Options struct {
	// Refresh updates an existing clone instead of skipping it.
	Refresh bool
}

// Syncer clones library repositories with the git binary. Every
// outcome is reported as data in a RepoSyncResult, never as an error,
// so the documentation fetch that triggered the sync always completes.
type Syncer struct {
	logger *slog.Logger

	// run executes one git invocation; tests swap it out.
	run func(ctx context.Context, args ...string) error
}

// New returns a Syncer that shells out to git.
func New(logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{logger: logger, run: runGit}
}

// Sync ensures targetDir holds a shallow clone of repoURL. An existing
// target directory is skipped unless opts.Refresh is set, in which
// case the clone is pulled, or replaced when the pull fails.
func (s *Syncer) Sync(ctx context.Context, repoURL, targetDir string, opts Options) models.RepoSyncResult {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	if info, err := os.Stat(targetDir); err == nil && info.IsDir() {
		if !opts.Refresh {
			return models.RepoSyncResult{
				Status: models.RepoSkipped,
				URL:    repoURL,
				Path:   targetDir,
				Reason: "repository already cloned",
			}
		}
		if isClone(targetDir) {
			s.logger.Debug("updating repository clone", slog.String("dir", targetDir))
			err := s.run(ctx, "-C", targetDir, "pull", "--depth=1")
			if err == nil {
				return models.RepoSyncResult{Status: models.RepoSynced, URL: repoURL, Path: targetDir}
			}
			s.logger.Warn("git pull failed, recloning",
				slog.String("dir", targetDir),
				slog.String("error", err.Error()))
		}
		if err := os.RemoveAll(targetDir); err != nil {
			return failed(repoURL, fmt.Sprintf("replace existing clone: %v", err))
		}
	}

	s.logger.Debug("cloning repository",
		slog.String("url", repoURL),
		slog.String("dir", targetDir))
	if err := s.run(ctx, "clone", "--depth=1", "--single-branch", repoURL, targetDir); err != nil {
		return failed(repoURL, err.Error())
	}
	return models.RepoSyncResult{Status: models.RepoSynced, URL: repoURL, Path: targetDir}
}

func failed(repoURL, reason string) models.RepoSyncResult {
	return models.RepoSyncResult{Status: models.RepoFailed, URL: repoURL, Reason: reason}
}

// isClone reports whether dir looks like a git working tree.
func isClone(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// runGit runs one git command, surfacing the first stderr line as the
// error message. The child inherits the environment, so proxy settings
// apply to clones as well.
func runGit(ctx context.Context, args ...string) error {
	verb := args[0]
	if verb == "-C" && len(args) > 2 {
		verb = args[2]
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			if i := strings.IndexByte(msg, '\n'); i > 0 {
				msg = msg[:i]
			}
			return fmt.Errorf("git %s: %s", verb, msg)
		}
		return fmt.Errorf("git %s: %w", verb, err)
	}
	return nil
}

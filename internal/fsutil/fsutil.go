// Package fsutil holds the filesystem collaborators around the archive
// codec: glob collection, output directory lifecycle, and the overwrite
// policy. Everything works against an afero.Fs so callers can run it
// in memory.
package fsutil

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
)

// CollectFiles expands each glob pattern and returns the regular files
// it matched, in pattern order. Non-file matches (directories) are
// dropped silently, like the matching shell idiom.
func CollectFiles(fsys afero.Fs, patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		matches, err := afero.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := fsys.Stat(match)
			if err != nil {
				continue
			}
			if info.Mode().IsRegular() {
				paths = append(paths, match)
			}
		}
	}
	return paths, nil
}

// EnsureDir makes sure path exists as a directory before any payload is
// written into it. In dry-run mode nothing is created; the intent is
// logged instead.
func EnsureDir(fsys afero.Fs, path string, dryRun bool, logger *slog.Logger) error {
	info, err := fsys.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output directory %s is a file", path)
		}
		return nil
	}

	if dryRun {
		logger.Info("dry-run: skipping creating directory", "path", path)
		return nil
	}

	logger.Debug("creating directory", "path", path)
	if err := fsys.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// CanModify reports whether a destination path may be written. An
// existing file may only be replaced with force; an existing directory
// never may. A declined write is a skip, not an error, so the caller
// can move on to its next output.
func CanModify(fsys afero.Fs, path string, force bool, logger *slog.Logger) bool {
	info, err := fsys.Stat(path)
	if err != nil {
		return true
	}

	if info.IsDir() {
		logger.Error("destination is a directory, skipping", "path", path)
		return false
	}

	if !force {
		logger.Info("file already exists, skipping; use -f or --force to overwrite", "path", path)
		return false
	}
	return true
}

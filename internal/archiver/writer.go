package archiver

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/halveck/nrestool/internal/fsutil"
	"github.com/halveck/nrestool/internal/nres"
)

var (
	// ErrInputUnavailable is returned when an input file cannot be
	// sized before the build starts; the whole build is aborted and no
	// output is created.
	ErrInputUnavailable = errors.New("input file unavailable")
	// ErrInputTooSmall is returned for inputs shorter than 4 bytes,
	// which cannot supply a type tag.
	ErrInputTooSmall = errors.New("input file too small for a type tag")
	// ErrArchiveTooLarge is returned when the total archive would not
	// fit the format's 32-bit size fields.
	ErrArchiveTooLarge = errors.New("archive exceeds 4 GiB format limit")
)

// plannedInput is one input after pre-flight validation.
type plannedInput struct {
	path string
	name string
	size uint32
}

// Build packs the given files, in order, into an NRes archive at
// outPath. Every input is resolved and sized before any byte is
// written; a failing input aborts the build with no partial output.
// The archive is assembled in a temp file and renamed into place, so a
// mid-write failure never leaves a truncated archive at outPath.
func Build(fsys afero.Fs, inputs []string, outPath string, opts Options, logger *slog.Logger) error {
	if !fsutil.CanModify(fsys, outPath, opts.Force, logger) {
		return nil
	}

	planned, header, err := preflight(fsys, inputs)
	if err != nil {
		return err
	}

	logger.Info("creating archive",
		"path", outPath,
		"file_count", header.FileCount,
		"archive_size", header.ArchiveSize,
	)

	if opts.DryRun {
		logger.Info("dry-run: skipping writing archive", "path", outPath)
		return nil
	}

	tmpPath := outPath + ".tmp"
	if err := writeArchive(fsys, tmpPath, planned, header, logger); err != nil {
		if removeErr := fsys.Remove(tmpPath); removeErr != nil {
			logger.Warn("failed to remove partial archive", "path", tmpPath, "error", removeErr)
		}
		return err
	}

	if err := fsys.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("failed to commit archive: %w", err)
	}
	return nil
}

// preflight sizes every input and computes the final header, so the
// build fails before creating any output if something is wrong with
// one of the files.
func preflight(fsys afero.Fs, inputs []string) ([]plannedInput, nres.Header, error) {
	planned := make([]plannedInput, 0, len(inputs))

	total := int64(nres.HeaderSize) + int64(len(inputs))*nres.EntrySize
	for _, path := range inputs {
		info, err := fsys.Stat(path)
		if err != nil {
			return nil, nres.Header{}, fmt.Errorf("%w: %s: %v", ErrInputUnavailable, path, err)
		}
		if info.IsDir() {
			return nil, nres.Header{}, fmt.Errorf("%w: %s is a directory", ErrInputUnavailable, path)
		}
		if info.Size() < 4 {
			return nil, nres.Header{}, fmt.Errorf("%w: %s is %d bytes", ErrInputTooSmall, path, info.Size())
		}

		name := filepath.Base(path)
		if len(name) > nres.NameFieldSize {
			return nil, nres.Header{}, fmt.Errorf("%w: name %q is %d bytes, max %d",
				nres.ErrFieldTooLong, name, len(name), nres.NameFieldSize)
		}

		planned = append(planned, plannedInput{path: path, name: name, size: uint32(info.Size())})
		total += info.Size()
	}

	if total > math.MaxUint32 {
		return nil, nres.Header{}, fmt.Errorf("%w: %d bytes", ErrArchiveTooLarge, total)
	}

	return planned, nres.Header{
		FileCount:   uint32(len(planned)),
		ArchiveSize: uint32(total),
	}, nil
}

func writeArchive(fsys afero.Fs, path string, planned []plannedInput, header nres.Header, logger *slog.Logger) error {
	out, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	if _, err := out.Write(nres.EncodeHeader(header)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	entries := make([]nres.Entry, 0, len(planned))
	offset := uint32(nres.HeaderSize)
	for i, input := range planned {
		payload, err := afero.ReadFile(fsys, input.path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", input.path, err)
		}
		// An input changing size between pre-flight and here would
		// desync the already-written header.
		if uint32(len(payload)) != input.size {
			return fmt.Errorf("%w: %s changed size during build", ErrInputUnavailable, input.path)
		}

		if _, err := out.Write(payload); err != nil {
			return fmt.Errorf("failed to write payload of %s: %w", input.path, err)
		}

		entry := nres.Entry{
			Type:   string(payload[:4]),
			Size:   input.size,
			Name:   input.name,
			Offset: offset,
			ID:     uint32(i),
		}
		logger.Debug("appending entry to table of contents",
			"name", entry.Name,
			"type", entry.Type,
			"size", entry.Size,
			"offset", entry.Offset,
			"id", entry.ID,
		)
		entries = append(entries, entry)
		offset += input.size
	}

	toc, err := nres.EncodeTOC(entries)
	if err != nil {
		return err
	}
	if _, err := out.Write(toc); err != nil {
		return fmt.Errorf("failed to write toc: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}

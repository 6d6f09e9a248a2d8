// Package archiver packs files into NRes archives and unpacks them
// again. The wire layout lives in internal/nres; this package adds the
// seek/read/write flow around it and the per-entry failure handling.
package archiver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/halveck/nrestool/internal/fsutil"
	"github.com/halveck/nrestool/internal/nres"
)

// ErrShortRead is returned when an archive holds fewer payload bytes
// than a table-of-contents entry declares. It is recoverable per entry:
// the caller may skip the truncated entry and continue with the rest.
var ErrShortRead = errors.New("archive truncated")

// Options carries the write-policy flags threaded through every
// mutating operation.
type Options struct {
	// DryRun replaces every mutating action with a log line; all
	// validation and layout computation still runs.
	DryRun bool
	// Force allows overwriting existing destination files.
	Force bool
}

// Reader reads an NRes archive from a seekable stream.
type Reader struct {
	src    io.ReadSeeker
	logger *slog.Logger

	header *nres.Header
}

// NewReader wraps src. The logger must not be nil; pass a discard
// logger to silence it.
func NewReader(src io.ReadSeeker, logger *slog.Logger) *Reader {
	return &Reader{src: src, logger: logger}
}

// ReadHeader reads and decodes the 16-byte archive header at the start
// of the stream.
func (r *Reader) ReadHeader() (nres.Header, error) {
	if _, err := r.src.Seek(0, io.SeekStart); err != nil {
		return nres.Header{}, fmt.Errorf("failed to seek to header: %w", err)
	}

	buf := make([]byte, nres.HeaderSize)
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return nres.Header{}, fmt.Errorf("failed to read header: %w", err)
	}

	header, err := nres.DecodeHeader(buf)
	if err != nil {
		return nres.Header{}, err
	}

	r.logger.Debug("decoded archive header",
		"file_count", header.FileCount,
		"archive_size", header.ArchiveSize,
	)

	r.header = &header
	return header, nil
}

// ReadTOC seeks to the table of contents and decodes every entry, in
// archive order. ReadHeader must have been called first.
func (r *Reader) ReadTOC() ([]nres.Entry, error) {
	if r.header == nil {
		return nil, errors.New("header not read")
	}

	tocOffset, err := nres.TOCOffset(*r.header)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("seeking table of contents", "offset", tocOffset)
	if _, err := r.src.Seek(tocOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to toc: %w", err)
	}

	buf := make([]byte, int(r.header.FileCount)*nres.EntrySize)
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return nil, fmt.Errorf("failed to read toc: %w", err)
	}

	return nres.DecodeTOC(buf, r.header.FileCount)
}

// ExtractEntry seeks to the entry's payload and reads exactly its
// declared size. Offsets are taken from the entry alone; payloads are
// not assumed to sit contiguously after the previous entry.
func (r *Reader) ExtractEntry(entry nres.Entry) ([]byte, error) {
	if _, err := r.src.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to %s at %d: %w", entry.Name, entry.Offset, err)
	}

	buf := make([]byte, entry.Size)
	n, err := io.ReadFull(r.src, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s declares %d bytes, only %d available", ErrShortRead, entry.Name, entry.Size, n)
	}
	return buf, nil
}

// Unarchive unpacks one archive into destDir, creating the directory
// once up front. Header and TOC failures abort this archive; a
// truncated or overwrite-declined entry is recorded in the report and
// the remaining entries are still attempted.
func Unarchive(fsys afero.Fs, archivePath, destDir string, opts Options, logger *slog.Logger) (Report, error) {
	logger = logger.With("archive", archivePath)
	logger.Info("unarchiving", "dest", destDir)

	report := Report{Archive: archivePath}

	file, err := fsys.Open(archivePath)
	if err != nil {
		return report, fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	reader := NewReader(file, logger)
	if _, err := reader.ReadHeader(); err != nil {
		return report, err
	}
	toc, err := reader.ReadTOC()
	if err != nil {
		return report, err
	}

	if err := fsutil.EnsureDir(fsys, destDir, opts.DryRun, logger); err != nil {
		return report, err
	}

	for _, entry := range toc {
		logger.Debug("processing toc entry",
			"name", entry.Name,
			"type", entry.Type,
			"size", entry.Size,
			"offset", entry.Offset,
			"id", entry.ID,
		)
		report.Items = append(report.Items, unpackEntry(fsys, reader, entry, destDir, opts, logger))
	}

	return report, nil
}

func unpackEntry(fsys afero.Fs, reader *Reader, entry nres.Entry, destDir string, opts Options, logger *slog.Logger) Item {
	item := Item{Name: entry.Name, Size: entry.Size}
	destPath := filepath.Join(destDir, entry.Name)

	payload, err := reader.ExtractEntry(entry)
	if err != nil {
		logger.Error("failed to unpack entry", "name", entry.Name, "error", err)
		item.Status = StatusFailed
		item.Err = err
		return item
	}

	if !fsutil.CanModify(fsys, destPath, opts.Force, logger) {
		item.Status = StatusSkipped
		return item
	}

	if opts.DryRun {
		logger.Info("dry-run: skipping writing file", "path", destPath)
		item.Status = StatusExtracted
		return item
	}

	if err := afero.WriteFile(fsys, destPath, payload, 0o644); err != nil {
		logger.Error("failed to write file", "path", destPath, "error", err)
		item.Status = StatusFailed
		item.Err = err
		return item
	}

	logger.Debug("copied entry", "path", destPath, "bytes", len(payload))
	item.Status = StatusExtracted
	return item
}

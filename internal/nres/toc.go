package nres

import "fmt"

// TOCOffset computes the absolute offset at which the table of contents
// starts: the archive size minus the size of the TOC itself. The result
// must leave room for the header, otherwise the header's file count and
// archive size are inconsistent.
func TOCOffset(h Header) (int64, error) {
	tocSize := int64(h.FileCount) * EntrySize
	offset := int64(h.ArchiveSize) - tocSize
	if offset < HeaderSize {
		return 0, fmt.Errorf("%w: toc for %d files would start at %d", ErrInvalidHeader, h.FileCount, offset)
	}
	return offset, nil
}

// DecodeTOC decodes a full table of contents. The buffer must be
// exactly fileCount entries long; order is preserved.
func DecodeTOC(buf []byte, fileCount uint32) ([]Entry, error) {
	expected := int(fileCount) * EntrySize
	if len(buf) != expected {
		return nil, fmt.Errorf("%w: toc for %d files is %d bytes, expected %d", ErrBadSize, fileCount, len(buf), expected)
	}

	entries := make([]Entry, 0, fileCount)
	for i := 0; i < int(fileCount); i++ {
		entry, err := DecodeEntry(buf[i*EntrySize : (i+1)*EntrySize])
		if err != nil {
			return nil, fmt.Errorf("toc entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// EncodeTOC concatenates the wire forms of the given entries in order.
// No sorting or reordering is performed; the caller's order is the
// canonical archive order.
func EncodeTOC(entries []Entry) ([]byte, error) {
	buf := make([]byte, 0, len(entries)*EntrySize)
	for i, entry := range entries {
		b, err := EncodeEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("toc entry %d: %w", i, err)
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

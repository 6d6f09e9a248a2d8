// Package nres implements the binary layout of Parkan NRes archives.
//
// An archive is a 16-byte header, the raw payloads of every packed file
// concatenated in write order, and a trailing table of contents of one
// 64-byte entry per file, also in write order. All integers are
// little-endian.
package nres

import "errors"

// Signature is the magic number identifying valid NRes archives ("NRes").
const Signature uint32 = 0x7365524E

// Reserved is the version/flags value the writer always emits. Readers
// ignore it.
const Reserved uint32 = 0x0100

const (
	// HeaderSize is the fixed size of the archive header in bytes.
	HeaderSize = 16
	// EntrySize is the fixed size of one table-of-contents entry in bytes.
	EntrySize = 64

	// TypeFieldSize and NameFieldSize are the widths of the two
	// NUL-padded text fields inside an entry.
	TypeFieldSize = 12
	NameFieldSize = 36
)

var (
	// ErrBadSignature is returned when a header's magic does not match
	// Signature.
	ErrBadSignature = errors.New("invalid NRes signature")
	// ErrBadSize is returned when a decode buffer is not exactly the
	// size the fixed layout requires.
	ErrBadSize = errors.New("incorrect buffer size")
	// ErrInvalidText is returned when a fixed-width text field is not
	// valid UTF-8 once its NUL padding is stripped.
	ErrInvalidText = errors.New("text field is not valid UTF-8")
	// ErrFieldTooLong is returned when a text field does not fit its
	// fixed width. Truncating would corrupt the offsets other readers
	// compute, so this is always a hard error.
	ErrFieldTooLong = errors.New("text field exceeds fixed width")
	// ErrInvalidHeader is returned when the header's file count and
	// archive size disagree, i.e. the claimed table of contents would
	// overlap the header or run past the end of the archive.
	ErrInvalidHeader = errors.New("inconsistent archive header")
)

// Header is the decoded archive header. The signature and reserved
// fields are not stored; decoding validates the signature and encoding
// re-asserts the canonical values.
type Header struct {
	FileCount   uint32
	ArchiveSize uint32 // total archive length, header and TOC included
}

// Entry is one decoded table-of-contents record.
type Entry struct {
	Type   string // blind 4-byte tag taken from the payload's first bytes
	Size   uint32
	Name   string // base file name, no directory components
	Offset uint32 // absolute byte offset of the payload in the archive
	ID     uint32 // zero-based sequence number assigned at build time
}

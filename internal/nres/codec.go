package nres

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DecodeHeader unpacks a 16-byte archive header. The buffer must be
// exactly HeaderSize bytes and carry the NRes signature.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes, expected %d", ErrBadSize, len(buf), HeaderSize)
	}

	sig := binary.LittleEndian.Uint32(buf[0:4])
	if sig != Signature {
		return Header{}, fmt.Errorf("%w: got %#x, expected %#x", ErrBadSignature, sig, Signature)
	}

	return Header{
		FileCount:   binary.LittleEndian.Uint32(buf[8:12]),
		ArchiveSize: binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

// EncodeHeader packs a header into its 16-byte wire form. The canonical
// signature and reserved values are always emitted, regardless of how
// the header was obtained.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], Signature)
	binary.LittleEndian.PutUint32(buf[4:8], Reserved)
	binary.LittleEndian.PutUint32(buf[8:12], h.FileCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.ArchiveSize)
	return buf
}

// DecodeEntry unpacks one 64-byte table-of-contents record.
func DecodeEntry(buf []byte) (Entry, error) {
	if len(buf) != EntrySize {
		return Entry{}, fmt.Errorf("%w: got %d bytes, expected %d", ErrBadSize, len(buf), EntrySize)
	}

	fileType, err := decodeText(buf[0:12], "type")
	if err != nil {
		return Entry{}, err
	}
	name, err := decodeText(buf[20:56], "name")
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Type:   fileType,
		Size:   binary.LittleEndian.Uint32(buf[12:16]),
		Name:   name,
		Offset: binary.LittleEndian.Uint32(buf[56:60]),
		ID:     binary.LittleEndian.Uint32(buf[60:64]),
	}, nil
}

// EncodeEntry packs an entry into its 64-byte wire form, NUL-padding
// the type and name fields.
func EncodeEntry(e Entry) ([]byte, error) {
	if len(e.Type) > TypeFieldSize {
		return nil, fmt.Errorf("%w: type %q is %d bytes, max %d", ErrFieldTooLong, e.Type, len(e.Type), TypeFieldSize)
	}
	if len(e.Name) > NameFieldSize {
		return nil, fmt.Errorf("%w: name %q is %d bytes, max %d", ErrFieldTooLong, e.Name, len(e.Name), NameFieldSize)
	}

	buf := make([]byte, EntrySize)
	copy(buf[0:12], e.Type)
	binary.LittleEndian.PutUint32(buf[12:16], e.Size)
	copy(buf[20:56], e.Name)
	binary.LittleEndian.PutUint32(buf[56:60], e.Offset)
	binary.LittleEndian.PutUint32(buf[60:64], e.ID)
	return buf, nil
}

// decodeText strips trailing NUL padding from a fixed-width field and
// validates the remainder is UTF-8.
func decodeText(raw []byte, field string) (string, error) {
	s := strings.TrimRight(string(raw), "\x00")
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: %s field %q", ErrInvalidText, field, raw)
	}
	return s, nil
}

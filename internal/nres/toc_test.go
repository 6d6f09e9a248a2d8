package nres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halveck/nrestool/internal/nres"
)

func TestTOCOffset(t *testing.T) {
	tests := []struct {
		name    string
		header  nres.Header
		want    int64
		wantErr bool
	}{
		{
			name:   "two files",
			header: nres.Header{FileCount: 2, ArchiveSize: 156},
			want:   28,
		},
		{
			name:   "empty archive",
			header: nres.Header{FileCount: 0, ArchiveSize: 16},
			want:   16,
		},
		{
			name:   "toc directly after header",
			header: nres.Header{FileCount: 1, ArchiveSize: 16 + 64},
			want:   16,
		},
		{
			name:    "toc would overlap header",
			header:  nres.Header{FileCount: 1, ArchiveSize: 79},
			wantErr: true,
		},
		{
			name:    "toc larger than archive",
			header:  nres.Header{FileCount: 100, ArchiveSize: 500},
			wantErr: true,
		},
		{
			name: "huge file count does not overflow",
			// 0xFFFFFFFF * 64 overflows 32-bit arithmetic but must
			// still be rejected
			header:  nres.Header{FileCount: 0xFFFFFFFF, ArchiveSize: 0xFFFFFFFF},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nres.TOCOffset(tt.header)
			if tt.wantErr {
				require.ErrorIs(t, err, nres.ErrInvalidHeader)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTOCRoundTrip(t *testing.T) {
	entries := []nres.Entry{
		{Type: "MSH0", Size: 8, Name: "first.msh", Offset: 16, ID: 0},
		{Type: "TEXR", Size: 4, Name: "second.tex", Offset: 24, ID: 1},
		{Type: "SND1", Size: 100, Name: "third.snd", Offset: 28, ID: 2},
	}

	buf, err := nres.EncodeTOC(entries)
	require.NoError(t, err)
	require.Len(t, buf, len(entries)*nres.EntrySize)

	got, err := nres.DecodeTOC(buf, uint32(len(entries)))
	require.NoError(t, err)
	// order is canonical and must survive the round trip untouched
	assert.Equal(t, entries, got)
}

func TestDecodeTOCSizeMismatch(t *testing.T) {
	buf, err := nres.EncodeTOC([]nres.Entry{{Type: "ABCD", Name: "x"}})
	require.NoError(t, err)

	_, err = nres.DecodeTOC(buf, 2)
	require.ErrorIs(t, err, nres.ErrBadSize)

	_, err = nres.DecodeTOC(buf[:32], 1)
	require.ErrorIs(t, err, nres.ErrBadSize)
}

func TestEncodeTOCPropagatesFieldErrors(t *testing.T) {
	entries := []nres.Entry{
		{Type: "ABCD", Name: "fine"},
		{Type: "ABCD", Name: "this_file_name_is_thirty_seven_bytes_"},
	}

	_, err := nres.EncodeTOC(entries)
	require.ErrorIs(t, err, nres.ErrFieldTooLong)
}

func TestEncodeTOCEmpty(t *testing.T) {
	buf, err := nres.EncodeTOC(nil)
	require.NoError(t, err)
	assert.Empty(t, buf)
}

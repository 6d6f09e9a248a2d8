package archiver_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halveck/nrestool/internal/archiver"
	"github.com/halveck/nrestool/internal/nres"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeInput(t *testing.T, fsys afero.Fs, path string, content []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, content, 0o644))
}

func TestBuildTwoFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeInput(t, fsys, "a.txt", []byte("ABCDEFGH"))
	writeInput(t, fsys, "b.bin", []byte("WXYZ"))

	err := archiver.Build(fsys, []string{"a.txt", "b.bin"}, "out.nres", archiver.Options{}, discardLogger())
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, "out.nres")
	require.NoError(t, err)
	require.Len(t, data, 156) // 16 + 12 + 2*64

	header, err := nres.DecodeHeader(data[:nres.HeaderSize])
	require.NoError(t, err)
	assert.Equal(t, nres.Header{FileCount: 2, ArchiveSize: 156}, header)

	tocOffset, err := nres.TOCOffset(header)
	require.NoError(t, err)
	assert.Equal(t, int64(28), tocOffset)

	toc, err := nres.DecodeTOC(data[tocOffset:], header.FileCount)
	require.NoError(t, err)
	require.Len(t, toc, 2)

	assert.Equal(t, nres.Entry{Type: "ABCD", Size: 8, Name: "a.txt", Offset: 16, ID: 0}, toc[0])
	assert.Equal(t, nres.Entry{Type: "WXYZ", Size: 4, Name: "b.bin", Offset: 24, ID: 1}, toc[1])

	assert.Equal(t, []byte("ABCDEFGH"), data[16:24])
	assert.Equal(t, []byte("WXYZ"), data[24:28])
}

func TestBuildOffsetsFollowInputOrder(t *testing.T) {
	fsys := afero.NewMemMapFs()
	contents := [][]byte{
		[]byte("first file payload"),
		[]byte("2nd!"),
		[]byte("the third and longest input payload here"),
	}
	inputs := []string{"one.dat", "two.dat", "three.dat"}
	for i, path := range inputs {
		writeInput(t, fsys, path, contents[i])
	}

	require.NoError(t, archiver.Build(fsys, inputs, "out.nres", archiver.Options{}, discardLogger()))

	data, err := afero.ReadFile(fsys, "out.nres")
	require.NoError(t, err)

	header, err := nres.DecodeHeader(data[:nres.HeaderSize])
	require.NoError(t, err)

	tocOffset, err := nres.TOCOffset(header)
	require.NoError(t, err)
	toc, err := nres.DecodeTOC(data[tocOffset:], header.FileCount)
	require.NoError(t, err)

	wantOffset := uint32(nres.HeaderSize)
	totalPayload := 0
	for i, entry := range toc {
		assert.Equal(t, wantOffset, entry.Offset, "entry %d", i)
		assert.Equal(t, uint32(i), entry.ID, "entry %d", i)
		assert.Equal(t, uint32(len(contents[i])), entry.Size, "entry %d", i)
		wantOffset += entry.Size
		totalPayload += len(contents[i])
	}

	// archive_size == header + payloads + toc, and the last payload
	// ends exactly where the toc begins
	assert.Equal(t, uint32(16+totalPayload+3*64), header.ArchiveSize)
	assert.Equal(t, int64(wantOffset), tocOffset)
}

func TestBuildNoInputs(t *testing.T) {
	fsys := afero.NewMemMapFs()

	require.NoError(t, archiver.Build(fsys, nil, "empty.nres", archiver.Options{}, discardLogger()))

	data, err := afero.ReadFile(fsys, "empty.nres")
	require.NoError(t, err)
	require.Len(t, data, nres.HeaderSize)

	header, err := nres.DecodeHeader(data)
	require.NoError(t, err)
	assert.Equal(t, nres.Header{FileCount: 0, ArchiveSize: 16}, header)
}

func TestBuildDeterministic(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeInput(t, fsys, "a.txt", []byte("ABCDEFGH"))
	writeInput(t, fsys, "b.bin", []byte("WXYZ"))

	inputs := []string{"a.txt", "b.bin"}
	require.NoError(t, archiver.Build(fsys, inputs, "first.nres", archiver.Options{}, discardLogger()))
	require.NoError(t, archiver.Build(fsys, inputs, "second.nres", archiver.Options{}, discardLogger()))

	first, err := afero.ReadFile(fsys, "first.nres")
	require.NoError(t, err)
	second, err := afero.ReadFile(fsys, "second.nres")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildMissingInputIsAtomic(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeInput(t, fsys, "a.txt", []byte("ABCDEFGH"))

	err := archiver.Build(fsys, []string{"a.txt", "no_such_file"}, "out.nres", archiver.Options{}, discardLogger())
	require.ErrorIs(t, err, archiver.ErrInputUnavailable)

	// nothing committed, nothing half-written
	for _, path := range []string{"out.nres", "out.nres.tmp"} {
		exists, err := afero.Exists(fsys, path)
		require.NoError(t, err)
		assert.False(t, exists, path)
	}
}

func TestBuildDirectoryInput(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("somedir", 0o755))

	err := archiver.Build(fsys, []string{"somedir"}, "out.nres", archiver.Options{}, discardLogger())
	require.ErrorIs(t, err, archiver.ErrInputUnavailable)
}

func TestBuildInputTooSmall(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeInput(t, fsys, "tiny.bin", []byte("abc"))

	err := archiver.Build(fsys, []string{"tiny.bin"}, "out.nres", archiver.Options{}, discardLogger())
	require.ErrorIs(t, err, archiver.ErrInputTooSmall)

	exists, err := afero.Exists(fsys, "out.nres")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBuildNameTooLong(t *testing.T) {
	fsys := afero.NewMemMapFs()
	longName := "this_file_name_is_thirty_seven_bytes_"
	writeInput(t, fsys, longName, []byte("ABCD"))

	err := archiver.Build(fsys, []string{longName}, "out.nres", archiver.Options{}, discardLogger())
	require.ErrorIs(t, err, nres.ErrFieldTooLong)
}

func TestBuildDryRun(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeInput(t, fsys, "a.txt", []byte("ABCDEFGH"))

	err := archiver.Build(fsys, []string{"a.txt"}, "out.nres", archiver.Options{DryRun: true}, discardLogger())
	require.NoError(t, err)

	exists, err := afero.Exists(fsys, "out.nres")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBuildDryRunStillValidates(t *testing.T) {
	fsys := afero.NewMemMapFs()

	err := archiver.Build(fsys, []string{"no_such_file"}, "out.nres", archiver.Options{DryRun: true}, discardLogger())
	require.ErrorIs(t, err, archiver.ErrInputUnavailable)
}

func TestBuildOverwritePolicy(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeInput(t, fsys, "a.txt", []byte("ABCDEFGH"))
	writeInput(t, fsys, "out.nres", []byte("existing content"))

	// declined: skip without error, destination untouched
	err := archiver.Build(fsys, []string{"a.txt"}, "out.nres", archiver.Options{}, discardLogger())
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, "out.nres")
	require.NoError(t, err)
	assert.Equal(t, []byte("existing content"), data)

	// forced: replaced with a real archive
	err = archiver.Build(fsys, []string{"a.txt"}, "out.nres", archiver.Options{Force: true}, discardLogger())
	require.NoError(t, err)

	data, err = afero.ReadFile(fsys, "out.nres")
	require.NoError(t, err)
	_, err = nres.DecodeHeader(data[:nres.HeaderSize])
	require.NoError(t, err)
}

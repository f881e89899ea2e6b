package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const styleXML = "<Map srs=\"+init=epsg:3857\">\n<Style name=\"roads\"/>\n</Map>\n"

func TestStdoutWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewStdoutWriter(&buf)

	require.NoError(t, w.Write([]byte(styleXML)))
	assert.Equal(t, styleXML, buf.String())
}

func TestStdoutWriter_NilDefault(t *testing.T) {
	w := NewStdoutWriter(nil)
	assert.NotNil(t, w)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestStdoutWriter_Error(t *testing.T) {
	err := NewStdoutWriter(failingWriter{}).Write([]byte("x"))

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "stdout", ioErr.Path)
}

func TestFileWriter_Write(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		t.Run(map[bool]string{false: "direct", true: "atomic"}[atomic], func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "out", "style.xml")

			w := NewFileWriter(path, WithAtomic(atomic))
			require.NoError(t, w.Write([]byte(styleXML)))

			got, err := os.ReadFile(path) //nolint:gosec // test
			require.NoError(t, err)
			assert.Equal(t, styleXML, string(got))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

			// No temp files left behind.
			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestFileWriter_CustomPermissions(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "custom.xml")

		w := NewFileWriter(path, WithPermissions(0o600), WithAtomic(atomic))
		require.NoError(t, w.Write([]byte("<Map/>")))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestFileWriter_OverwriteExisting(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "existing.xml")
		require.NoError(t, os.WriteFile(path, []byte("old old old old"), 0o644)) //nolint:gosec // test

		w := NewFileWriter(path, WithAtomic(atomic))
		require.NoError(t, w.Write([]byte("new")))

		got, err := os.ReadFile(path) //nolint:gosec // test
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	}
}

func TestFileWriter_Path(t *testing.T) {
	w := NewFileWriter("/tmp/style.xml")
	assert.Equal(t, "/tmp/style.xml", w.Path())
}

func TestFileWriter_InvalidPath(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		w := NewFileWriter("/dev/null/impossible/style.xml", WithAtomic(atomic))
		err := w.Write([]byte("data"))

		var ioErr *IOError
		require.ErrorAs(t, err, &ioErr)
		assert.NotEmpty(t, ioErr.Error())
	}
}

func TestIsTempFile(t *testing.T) {
	target := filepath.Join("/srv", "style.xml")

	assert.True(t, IsTempFile(target, filepath.Join("/srv", ".style.xml.tmp-12345")))
	assert.False(t, IsTempFile(target, filepath.Join("/srv", ".style.xml.tmp-")))
	assert.False(t, IsTempFile(target, filepath.Join("/other", ".style.xml.tmp-12345")))
	assert.False(t, IsTempFile(target, target))
}

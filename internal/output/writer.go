package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// IOError reports a failure to write rendered output.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Writer is the interface for rendered output destinations.
type Writer interface {
	// Write sends rendered bytes to the destination.
	Write(data []byte) error
}

// StdoutWriter writes rendered output to a stream.
type StdoutWriter struct {
	out io.Writer
}

// NewStdoutWriter creates a writer that sends output to w.
// If w is nil, os.Stdout is used.
func NewStdoutWriter(w io.Writer) *StdoutWriter {
	if w == nil {
		w = os.Stdout
	}

	return &StdoutWriter{out: w}
}

// Write sends data to the stream.
func (sw *StdoutWriter) Write(data []byte) error {
	if _, err := sw.out.Write(data); err != nil {
		return &IOError{Path: "stdout", Op: "write", Err: err}
	}

	return nil
}

// FileWriter replaces a file with each rendered document, creating parent
// directories as needed.
type FileWriter struct {
	path   string
	perm   os.FileMode
	atomic bool
	logger *slog.Logger
}

// FileWriterOption configures a FileWriter.
type FileWriterOption func(*FileWriter)

// WithPermissions overrides the default file permissions (0644).
func WithPermissions(perm os.FileMode) FileWriterOption {
	return func(fw *FileWriter) {
		fw.perm = perm
	}
}

// WithAtomic writes to a temporary file next to the target and renames it
// into place, so readers never see a partial document.
func WithAtomic(atomic bool) FileWriterOption {
	return func(fw *FileWriter) {
		fw.atomic = atomic
	}
}

// WithLogger sets a logger for the FileWriter.
func WithLogger(logger *slog.Logger) FileWriterOption {
	return func(fw *FileWriter) {
		if logger != nil {
			fw.logger = logger
		}
	}
}

// NewFileWriter creates a writer for the given file path.
func NewFileWriter(path string, opts ...FileWriterOption) *FileWriter {
	fw := &FileWriter{
		path:   path,
		perm:   0o644,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(fw)
	}

	return fw
}

// Write replaces the file contents with data.
func (fw *FileWriter) Write(data []byte) error {
	dir := filepath.Dir(fw.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &IOError{Path: dir, Op: "create directory", Err: err}
	}

	var err error
	if fw.atomic {
		err = fw.writeAtomic(dir, data)
	} else {
		err = os.WriteFile(fw.path, data, fw.perm)
		if err != nil {
			err = &IOError{Path: fw.path, Op: "write", Err: err}
		}
	}

	if err != nil {
		return err
	}

	fw.logger.Debug("output written",
		slog.String("path", fw.path),
		slog.String("size", humanize.Bytes(uint64(len(data)))),
		slog.Bool("atomic", fw.atomic),
	)

	return nil
}

func (fw *FileWriter) writeAtomic(dir string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fw.path)+".tmp-*")
	if err != nil {
		return &IOError{Path: fw.path, Op: "create temp file for", Err: err}
	}

	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()

		return &IOError{Path: tmpName, Op: "write", Err: err}
	}

	if err := tmp.Chmod(fw.perm); err != nil {
		_ = tmp.Close()
		cleanup()

		return &IOError{Path: tmpName, Op: "chmod", Err: err}
	}

	if err := tmp.Close(); err != nil {
		cleanup()

		return &IOError{Path: tmpName, Op: "close", Err: err}
	}

	if err := os.Rename(tmpName, fw.path); err != nil {
		cleanup()

		return &IOError{Path: fw.path, Op: "rename", Err: err}
	}

	return nil
}

// Path returns the output file path.
func (fw *FileWriter) Path() string {
	return fw.path
}

// IsTempFile reports whether name is a temporary file a FileWriter for
// target may create.
func IsTempFile(target, name string) bool {
	prefix := "." + filepath.Base(target) + ".tmp-"
	base := filepath.Base(name)

	return filepath.Dir(name) == filepath.Dir(target) && strings.HasPrefix(base, prefix) && base != prefix
}

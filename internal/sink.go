package internal

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
)

// ArchiveSink consumes emitted file parts. WritePart blocks until the part
// is durably consumed; the producer never runs ahead of it.
type ArchiveSink interface {
	WritePart(part FilePart) error
	Close() error
}

// DirSink writes each part as a file in a directory.
type DirSink struct {
	dir string
}

// NewDirSink creates the output directory if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// WritePart writes one shard to disk.
func (s *DirSink) WritePart(part FilePart) error {
	path := filepath.Join(s.dir, part.FileName)
	if err := os.WriteFile(path, part.Content, 0o644); err != nil {
		return &SinkError{FileName: part.FileName, Err: err}
	}
	LogDebug("wrote %s (%d bytes)", path, len(part.Content))
	return nil
}

// Close is a no-op for directories.
func (s *DirSink) Close() error {
	return nil
}

// ZipSink streams parts into a single zip archive.
type ZipSink struct {
	file *os.File
	zw   *zip.Writer
}

// NewZipSink creates the archive file.
func NewZipSink(path string) (*ZipSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	return &ZipSink{file: f, zw: zip.NewWriter(f)}, nil
}

// WritePart appends one shard to the archive.
func (s *ZipSink) WritePart(part FilePart) error {
	w, err := s.zw.Create(part.FileName)
	if err != nil {
		return &SinkError{FileName: part.FileName, Err: err}
	}
	if _, err := w.Write(part.Content); err != nil {
		return &SinkError{FileName: part.FileName, Err: err}
	}
	return nil
}

// Close finishes the archive.
func (s *ZipSink) Close() error {
	if err := s.zw.Close(); err != nil {
		s.file.Close()
		return &SinkError{FileName: s.file.Name(), Err: err}
	}
	return s.file.Close()
}

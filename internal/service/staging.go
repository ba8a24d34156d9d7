package service

import (
	"fmt"
	"io"
	"os"
)

// stagedFile is a transient on-disk copy of an uploaded document. It exists
// only between upload and extraction; Remove must run on every exit path.
type stagedFile struct {
	path string
}

// stageUpload copies the upload stream into a uniquely named file under dir
// (OS temp dir when empty). If the copy fails the partial file is removed
// before returning.
func stageUpload(dir string, r io.Reader) (*stagedFile, error) {
	f, err := os.CreateTemp(dir, "credit-report-*.xml")
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close staging file: %w", err)
	}
	return &stagedFile{path: f.Name()}, nil
}

func (s *stagedFile) Path() string { return s.path }

// Remove deletes the staging file. Safe to call more than once.
func (s *stagedFile) Remove() {
	if s.path != "" {
		os.Remove(s.path)
		s.path = ""
	}
}

package media

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Staging writes multipart uploads to local temporary storage under a
// generated filename before they are handed to the object-storage client.
type Staging struct {
	Dir string
}

// NewStaging constructs a staging area rooted at dir, defaulting to the
// system temp directory.
func NewStaging(dir string) Staging {
	if dir == "" {
		dir = os.TempDir()
	}
	return Staging{Dir: dir}
}

// Stage copies the uploaded file to the staging directory and returns its
// path. The original extension is preserved so probing tools can sniff the
// container format.
func (s Staging) Stage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if file == nil || header == nil {
		return "", fmt.Errorf("staging: missing upload")
	}

	name := uuid.NewString() + filepath.Ext(header.Filename)
	path := filepath.Join(s.Dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close staged file: %w", err)
	}

	return path, nil
}

// Discard removes a staged file once it has been handed off.
func (s Staging) Discard(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

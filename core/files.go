package core

import (
	"errors"
	"io"
)

var ErrFileTypeNotAllowed = errors.New("file type not allowed")

// FileStore persists uploaded files.
type FileStore interface {
	// Save stores src under subdir using filename as a naming hint and
	// returns a relative path identifying the stored file, suitable for
	// serving back to clients.
	// Files whose extension is not allowed fail with ErrFileTypeNotAllowed.
	Save(subdir, filename string, src io.Reader) (string, error)
}

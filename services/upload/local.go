package uploadsvc

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// allowedExtensions lists the upload types accepted for task submissions.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".jpg":  true,
	".png":  true,
	".zip":  true,
}

var nowFunc = time.Now // mockable

type localFileStore struct {
	root string
}

var _ core.FileStore = (*localFileStore)(nil)

// NewLocalFileStore stores files on disk under root. Saved paths are
// returned relative to root's parent so they double as static URLs.
func NewLocalFileStore(root string) *localFileStore {
	return &localFileStore{root: root}
}

func (store localFileStore) Save(subdir, filename string, src io.Reader) (string, error) {
	name := sanitizeFilename(filename)
	if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return "", core.ErrFileTypeNotAllowed
	}
	name = nowFunc().UTC().Format("20060102_150405_") + name

	dir := filepath.Join(store.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer func() { _ = dst.Close() }()

	if _, err = io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "writing upload file")
	}
	return path.Join(filepath.Base(store.root), subdir, name), nil
}

// sanitizeFilename strips any path component an uploaded name may smuggle in
// and flattens the remaining odd characters.
func sanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.TrimSpace(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

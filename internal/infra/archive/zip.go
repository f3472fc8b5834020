// Package archive packs generated files for download.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"pdf-suite-server/internal/domain"
)

// Zipper implements domain.Archiver with zip archives.
type Zipper struct {
	now func() time.Time
}

// NewZipper creates a zip archiver.
func NewZipper() *Zipper {
	return &Zipper{now: time.Now}
}

// Archive writes files into a zip archive in the given order. Names must be
// unique.
func (z *Zipper) Archive(files []domain.NamedFile) ([]byte, error) {
	if len(files) == 0 {
		return nil, &domain.ValidationError{Field: "files", Message: "nothing to archive"}
	}

	mod := z.now()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate archive entry %q", f.Name)
		}
		seen[f.Name] = struct{}{}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: mod,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

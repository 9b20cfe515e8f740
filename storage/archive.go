// Package storage archives the images of verified documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/spf13/afero"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

const archiveDir = "VerifiedDocuments"

// ArchiveName is the object name a verified document image is stored under.
func ArchiveName(docType dto.DocumentType, at time.Time) string {
	return path.Join(archiveDir, fmt.Sprintf("%s_%d.jpg", docType.Slug(), at.Unix()))
}

// FSArchive writes archived images to an afero filesystem.
type FSArchive struct {
	fs afero.Fs
}

// NewLocalArchive archives under root on the local disk.
func NewLocalArchive(root string) *FSArchive {
	return NewFSArchive(afero.NewBasePathFs(afero.NewOsFs(), root))
}

func NewFSArchive(fs afero.Fs) *FSArchive {
	return &FSArchive{fs: fs}
}

// Save stores data under ArchiveName and returns that name. An object that already
// exists under the same name is left untouched.
func (a *FSArchive) Save(ctx context.Context, docType dto.DocumentType, data []byte, at time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := ArchiveName(docType, at)
	if err := a.fs.MkdirAll(archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	f, err := a.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return name, nil
		}
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	return name, nil
}

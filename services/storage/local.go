package storagesvc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core"
)

// localStorage is a content-addressed store on the local filesystem.
// The blob is first written to a uuid-named temp file (unique, so
// concurrent uploads never race) while its sha256 is computed, then
// atomically renamed to <hash><ext>. Identical content converges on one
// file; the rename is a no-op overwrite of the same bytes.
type localStorage struct {
	dir string
}

var _ core.FileStorage = (*localStorage)(nil)

func NewLocalStorage(dir string) (*localStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage dir")
	}
	return &localStorage{dir: dir}, nil
}

func (s *localStorage) Save(ctx context.Context, r io.Reader, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmpPath := filepath.Join(s.dir, uuid.New().String()+".tmp")
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", errors.Wrap(err, "creating temp file")
	}

	hash := sha256.New()
	if _, err = io.Copy(io.MultiWriter(f, hash), r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "writing blob")
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "closing temp file")
	}

	name := hex.EncodeToString(hash.Sum(nil)) + ext
	if err = os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "renaming blob")
	}
	return name, nil
}

func (s *localStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, errors.Wrap(err, "opening blob")
	}
	return f, nil
}

func (s *localStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(name))); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting blob")
	}
	return nil
}

package core

import (
	"context"
	"io"
)

// FileStorage stores uploaded blobs under unique names. The returned name
// is the only reference the domain keeps (e.g. User.ProfilePicture);
// implementations must guarantee name uniqueness without racing concurrent
// uploads.
type FileStorage interface {
	// Save stores the blob and returns its unique name. ext, when given,
	// is carried over onto the stored name (".png", ".jpg", ...).
	Save(ctx context.Context, r io.Reader, ext string) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

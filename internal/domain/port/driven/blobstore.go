package driven

import (
	"context"
	"errors"
)

// ErrEncryptionKeyNotSet is returned by BlobStore operations when
// DOCXLATE_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set DOCXLATE_SECRET_KEY")

// BlobStore is the driven port for the persistent key-value store behind the
// credential store. Every Write replaces the whole blob stored under key.
// The adapter is responsible for encryption at rest; values cross this
// boundary as plaintext.
type BlobStore interface {
	// Read returns the blob for key. ok is false when nothing is stored.
	Read(ctx context.Context, key string) (blob []byte, ok bool, err error)

	// Write stores blob under key, replacing any previous value.
	Write(ctx context.Context, key string, blob []byte) error
}

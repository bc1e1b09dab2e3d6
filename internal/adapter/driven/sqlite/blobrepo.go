package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/ericfisherdev/docxlate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BlobStore = (*BlobRepo)(nil)

// keySalt is mixed into the passphrase when deriving the AES key. Changing it
// makes every stored blob unreadable.
var keySalt = []byte("docxlate/blobs/v1")

// DeriveKey stretches a passphrase into a 32-byte AES-256 key with Argon2id.
// An empty passphrase yields nil, which disables the blob store.
func DeriveKey(passphrase string) []byte {
	if passphrase == "" {
		return nil
	}
	return argon2.IDKey([]byte(passphrase), keySalt, 1, 64*1024, 4, 32)
}

// BlobRepo is the SQLite implementation of the BlobStore port interface.
// Values are encrypted with AES-256-GCM before write and decrypted after read.
type BlobRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewBlobRepo creates a new BlobRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable the store (all operations will return ErrEncryptionKeyNotSet).
func NewBlobRepo(db *DB, key []byte) *BlobRepo {
	return &BlobRepo{db: db, key: key}
}

// Read returns the decrypted blob stored under key.
func (r *BlobRepo) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if r.key == nil {
		return nil, false, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM blobs WHERE key = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read blob %q: %w", key, err)
	}

	plaintext, err := r.decrypt(encrypted)
	if err != nil {
		return nil, false, fmt.Errorf("decrypt blob %q: %w", key, err)
	}
	return plaintext, true, nil
}

// Write encrypts blob and stores it under key, replacing any previous value.
func (r *BlobRepo) Write(ctx context.Context, key string, blob []byte) error {
	encrypted, err := r.encrypt(blob)
	if err != nil {
		return err
	}

	const query = `INSERT OR REPLACE INTO blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, key, encrypted); err != nil {
		return fmt.Errorf("write blob %q: %w", key, err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *BlobRepo) encrypt(plaintext []byte) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *BlobRepo) decrypt(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.aead()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("gcm.Open: %w", err)
	}

	return plaintext, nil
}

func (r *BlobRepo) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

package cntool

import (
	"bytes"
	"crypto/rand"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Key material spends most of its life encrypted at rest: decrypt before
// use, encrypt after. The passphrase is operator supplied and confirmed
// twice on creation by the caller.

const MinPassphraseLength = 8

var encMagic = []byte("cntool-enc-v1\n")

const encSaltSize = 16

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, chacha20poly1305.KeySize)
}

func checkPassphrase(passphrase string) (err error) {
	if len(passphrase) < MinPassphraseLength {
		err = errors.WithStack(ErrPassphraseTooShort)
	}
	return
}

// Encrypt seals plaintext under the passphrase. Output layout:
// magic || salt || nonce || ciphertext.
func Encrypt(plaintext []byte, passphrase string) (blob []byte, err error) {
	if err = checkPassphrase(passphrase); err != nil {
		return
	}

	salt := make([]byte, encSaltSize)
	if _, err2 := rand.Read(salt); err2 != nil {
		err = errors.Wrapf(ErrEncryptionFailed, "salt: %v", err2)
		return
	}

	aead, err2 := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err2 != nil {
		err = errors.Wrapf(ErrEncryptionFailed, "%v", err2)
		return
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err2 = rand.Read(nonce); err2 != nil {
		err = errors.Wrapf(ErrEncryptionFailed, "nonce: %v", err2)
		return
	}

	blob = append(blob, encMagic...)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, nil)
	return
}

// Decrypt reverses Encrypt. A wrong passphrase or tampered blob fails the
// aead open and surfaces as ErrDecryptionFailed.
func Decrypt(blob []byte, passphrase string) (plaintext []byte, err error) {
	if err = checkPassphrase(passphrase); err != nil {
		return
	}

	if !bytes.HasPrefix(blob, encMagic) {
		err = errors.Wrap(ErrDecryptionFailed, "not an encrypted key file")
		return
	}
	blob = blob[len(encMagic):]

	if len(blob) < encSaltSize+chacha20poly1305.NonceSizeX {
		err = errors.Wrap(ErrDecryptionFailed, "truncated blob")
		return
	}

	salt := blob[:encSaltSize]
	nonce := blob[encSaltSize : encSaltSize+chacha20poly1305.NonceSizeX]
	ciphertext := blob[encSaltSize+chacha20poly1305.NonceSizeX:]

	aead, err2 := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err2 != nil {
		err = errors.Wrapf(ErrDecryptionFailed, "%v", err2)
		return
	}

	plaintext, err2 = aead.Open(nil, nonce, ciphertext, nil)
	if err2 != nil {
		err = errors.Wrap(ErrDecryptionFailed, "wrong passphrase or corrupted file")
	}

	return
}

// EncryptKeyFile encrypts a key file in place.
func EncryptKeyFile(path, passphrase string) (err error) {
	data, err2 := os.ReadFile(path)
	if err2 != nil {
		err = errors.Wrapf(ErrEncryptionFailed, "read '%s': %v", path, err2)
		return
	}

	if bytes.HasPrefix(data, encMagic) {
		err = errors.Wrapf(ErrEncryptionFailed, "'%s' is already encrypted", path)
		return
	}

	blob, err := Encrypt(data, passphrase)
	if err != nil {
		return
	}

	if err2 = os.WriteFile(path, blob, 0o600); err2 != nil {
		err = errors.Wrapf(ErrEncryptionFailed, "write '%s': %v", path, err2)
	}
	return
}

// DecryptKeyFile decrypts a key file in place.
func DecryptKeyFile(path, passphrase string) (err error) {
	blob, err2 := os.ReadFile(path)
	if err2 != nil {
		err = errors.Wrapf(ErrDecryptionFailed, "read '%s': %v", path, err2)
		return
	}

	data, err := Decrypt(blob, passphrase)
	if err != nil {
		return
	}

	if err2 = os.WriteFile(path, data, 0o600); err2 != nil {
		err = errors.Wrapf(ErrDecryptionFailed, "write '%s': %v", path, err2)
	}
	return
}

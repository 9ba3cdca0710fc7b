package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/shortly/shortly/internal/entity"
)

var ErrInvalidSecretSize = errors.New("secret must be 16 or 32 bytes long")

type AES256 struct {
	cipher cipher.AEAD
}

func NewAES256(secret string) (*AES256, error) {
	if len(secret)%aes.BlockSize != 0 {
		return nil, ErrInvalidSecretSize
	}

	aesblock, err := aes.NewCipher([]byte(secret))
	if err != nil {
		return nil, errors.Wrapf(err, "preparing aesblock")
	}

	aesgcm, err := cipher.NewGCM(aesblock)
	if err != nil {
		return nil, errors.Wrapf(err, "preparing aesgcm")
	}

	return &AES256{
		cipher: aesgcm,
	}, nil
}

func (ae *AES256) Encrypt(ctx context.Context, caller *entity.Caller) (string, error) {
	// Generate random bytes for the nonce
	nonce := make([]byte, ae.cipher.NonceSize())
	_, err := rand.Read(nonce)
	if err != nil {
		return "", errors.Wrapf(err, "preparing nonce bytes")
	}

	// Seal the caller UID
	// Note the nonce in the beginning - we will use it during decryption
	sealed := ae.cipher.Seal(nonce, nonce, caller.UID, nil)

	// Return as base64 string
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (ae *AES256) Decrypt(ctx context.Context, encrypted string) (*entity.Caller, error) {
	// First, decode encrypted string (base64)
	decoded, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding caller cookie")
	}
	if len(decoded) < ae.cipher.NonceSize() {
		return nil, errors.New("caller cookie is too short")
	}

	// Cut off nonce bytes
	nonce, sealed := decoded[:ae.cipher.NonceSize()], decoded[ae.cipher.NonceSize():]

	// Decrypt and verify signature
	uid, err := ae.cipher.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "decrypting caller cookie")
	}

	return &entity.Caller{
		UID: uid,
	}, nil
}

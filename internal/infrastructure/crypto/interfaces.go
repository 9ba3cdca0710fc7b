package crypto

import (
	"context"

	"github.com/shortly/shortly/internal/entity"
)

type EncryptorDecryptor interface {
	Encrypt(context.Context, *entity.Caller) (string, error)
	Decrypt(context.Context, string) (*entity.Caller, error)
}

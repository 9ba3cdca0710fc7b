package crypto

import (
	"context"
	"encoding/hex"

	"github.com/shortly/shortly/internal/entity"
)

type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Encrypt(ctx context.Context, caller *entity.Caller) (string, error) {
	// Return as plaintext
	return caller.String(), nil
}

func (m *Mock) Decrypt(ctx context.Context, encrypted string) (*entity.Caller, error) {
	uid, err := hex.DecodeString(encrypted)
	if err != nil {
		return nil, err
	}
	return &entity.Caller{
		UID: uid,
	}, nil
}

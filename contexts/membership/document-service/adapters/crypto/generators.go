package cryptoadapter

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// OtpCodeGenerator draws a uniform six-digit code from crypto/rand.
type OtpCodeGenerator struct{}

func (OtpCodeGenerator) NewCode(_ context.Context) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// DownloadTokenGenerator mints 32 random bytes hex-encoded, the opaque
// credential released after a successful verify.
type DownloadTokenGenerator struct{}

func (DownloadTokenGenerator) NewToken(_ context.Context) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// Package security hashes staff passwords with argon2id.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash signals a malformed argon2id hash string.
var ErrInvalidHash = errors.New("invalid argon2id hash")

// ArgonParams are embedded into every hash so old hashes keep verifying after
// the configuration changes.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// ParamsFromConfig clamps the configured values to sane bounds.
func ParamsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		Time:        uint32(clamp(cfg.ArgonTime, 1, 10)),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		KeyLen:      uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

// HashPassword returns an encoded argon2id hash for password.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	params := ParamsFromConfig(cfg)
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Time, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches the encoded hash.
func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, want, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, params.KeyLen)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

func decodeHash(encoded string) (ArgonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}

	var params ArgonParams
	for _, token := range strings.Split(parts[3], ",") {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return ArgonParams{}, nil, nil, ErrInvalidHash
		}
		bits := 32
		if key == "p" {
			bits = 8
		}
		n, err := strconv.ParseUint(value, 10, bits)
		if err != nil {
			return ArgonParams{}, nil, nil, ErrInvalidHash
		}
		switch key {
		case "m":
			params.Memory = uint32(n)
		case "t":
			params.Time = uint32(n)
		case "p":
			params.Parallelism = uint8(n)
		}
	}
	if params.Memory == 0 || params.Time == 0 || params.Parallelism == 0 {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	params.SaltLen = uint32(len(salt))
	params.KeyLen = uint32(len(hash))
	return params, salt, hash, nil
}

func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}

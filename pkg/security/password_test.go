package security_test

import (
	"testing"

	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	"github.com/angelmondragon/servicedesk-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", fastParams)
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=8192,t=1,p=1$")

	ok, err := security.VerifyPassword("very-secure-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPassword("bogus-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", fastParams)
	assert.Error(t, err)
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{"not-a-hash", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA", "$bcrypt$v=19$m=1,t=1,p=1$a$b"} {
		_, err := security.VerifyPassword("irrelevant", encoded)
		assert.ErrorIs(t, err, security.ErrInvalidHash, encoded)
	}
}

func TestParamsFromConfigClamps(t *testing.T) {
	p := security.ParamsFromConfig(config.PasswordConfig{})
	assert.EqualValues(t, 8, p.Memory)
	assert.EqualValues(t, 1, p.Time)
	assert.EqualValues(t, 1, p.Parallelism)
	assert.EqualValues(t, 8, p.SaltLen)
	assert.EqualValues(t, 16, p.KeyLen)
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret-key", 30)

	token, expiresIn, err := svc.Generate("admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.EqualValues(t, 1800, expiresIn)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestJWTService_Verify_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService("secret-a", 30).Generate("admin")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 30).Verify(token)
	assert.Error(t, err)
}

func TestJWTService_Verify_Garbage(t *testing.T) {
	svc := NewJWTService("test-secret-key", 30)

	_, err := svc.Verify("not.a.token")
	assert.Error(t, err)
}

func TestBcryptPasswordHasher(t *testing.T) {
	hasher := NewBcryptPasswordHasher(4)

	hash, err := hasher.Hash("hunter22")
	require.NoError(t, err)

	assert.NoError(t, hasher.Verify("hunter22", hash))
	assert.Error(t, hasher.Verify("wrong", hash))
	assert.Error(t, hasher.Verify("hunter22", "not-a-hash"))
}

package things_test

import (
	"errors"
	"testing"

	things "github.com/goliatone/go-things"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "password"},
		{name: "unicode password", password: "pässwörd"},
		{name: "empty password", password: "", wantErr: things.ErrNoEmptyString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := things.HashPasswordWithCost(tt.password, bcrypt.MinCost)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Empty(t, hash)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, things.ComparePasswordAndHash(tt.password, hash))
		})
	}
}

func TestHashPasswordWithCostOutOfRange(t *testing.T) {
	hash, err := things.HashPasswordWithCost("password", bcrypt.MaxCost+1)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := things.HashPasswordWithCost("password", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, things.ComparePasswordAndHash("password", hash))

	err = things.ComparePasswordAndHash("wrong", hash)
	assert.True(t, errors.Is(err, things.ErrInvalidCredentials))

	err = things.ComparePasswordAndHash("password", "not-a-hash")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, things.ErrInvalidCredentials))
}

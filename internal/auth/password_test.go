package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification_service/internal/models"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Str0ng!pass", wantErr: false},
		{name: "too short", password: "S0r!t", wantErr: true},
		{name: "missing lowercase", password: "STR0NG!PASS", wantErr: true},
		{name: "missing uppercase", password: "str0ng!pass", wantErr: true},
		{name: "missing digit", password: "Strong!pass", wantErr: true},
		{name: "missing symbol", password: "Str0ngpass", wantErr: true},
		{name: "empty", password: "", wantErr: true},
		{name: "exactly eight chars", password: "Ab1!Ab1!", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrWeakPassword)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass")
	require.NoError(t, err)

	// The hash must never equal the plaintext.
	assert.NotEqual(t, "Str0ng!pass", hash)

	assert.NoError(t, CheckPasswordHash("Str0ng!pass", hash))
	assert.Error(t, CheckPasswordHash("wrong-password", hash))
}

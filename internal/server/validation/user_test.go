package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/incidentportal/internal/common"
)

func TestValidateRegister(t *testing.T) {
	ok := RegisterInput{Email: "ann@example.com", Password: "secret1", Name: "Ann"}

	tests := []struct {
		name    string
		mutate  func(in *RegisterInput)
		wantMsg string
	}{
		{name: "valid", mutate: func(in *RegisterInput) {}},
		{name: "missing email", mutate: func(in *RegisterInput) { in.Email = "" }, wantMsg: "Email is required"},
		{name: "bad email", mutate: func(in *RegisterInput) { in.Email = "not-an-email" }, wantMsg: "Please enter a valid email"},
		{name: "short password", mutate: func(in *RegisterInput) { in.Password = "12345" }, wantMsg: "Password must be at least 6 characters"},
		{name: "password at byte limit", mutate: func(in *RegisterInput) { in.Password = strings.Repeat("p", MaxPasswordBytes) }},
		{name: "password over byte limit", mutate: func(in *RegisterInput) { in.Password = strings.Repeat("p", MaxPasswordBytes+1) }, wantMsg: MsgPasswordTooLong},
		// 25 runes but 75 bytes
		{name: "multibyte password over byte limit", mutate: func(in *RegisterInput) { in.Password = strings.Repeat("€", 25) }, wantMsg: MsgPasswordTooLong},
		{name: "missing name", mutate: func(in *RegisterInput) { in.Name = "" }, wantMsg: "Name is required"},
		{name: "long name", mutate: func(in *RegisterInput) { in.Name = strings.Repeat("n", 51) }, wantMsg: "Name cannot exceed 50 characters"},
		{name: "name at limit", mutate: func(in *RegisterInput) { in.Name = strings.Repeat("n", 50) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ok
			tt.mutate(&in)

			err := ValidateRegister(in)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrorValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestValidateLogin(t *testing.T) {
	assert.NoError(t, ValidateLogin(LoginInput{Email: "a@b.co", Password: "x"}))

	err := ValidateLogin(LoginInput{Email: "a@b.co"})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, "Password is required", err.Error())
}

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/jotterapp/jotter-server/internal/errors"
)

type signupForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Nickname string `json:"nickname,omitempty" validate:"max=16"`
}

func TestValidate_Valid(t *testing.T) {
	v := New()

	err := v.Validate(signupForm{
		Email:    "alice@example.com",
		Password: "password123",
	})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	v := New()

	err := v.Validate(signupForm{
		Email:    "not-an-email",
		Password: "short",
	})
	require.Error(t, err)
	require.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	var domainErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &domainErr))

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok, "details should be a field error map")
	assert.Equal(t, "must be a valid email address", details["email"])
	assert.Equal(t, "must be at least 8 characters", details["password"])
}

func TestValidate_UsesJSONTagNames(t *testing.T) {
	v := New()

	err := v.Validate(signupForm{
		Email:    "alice@example.com",
		Password: "password123",
		Nickname: "a very long nickname here",
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &domainErr))

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	// "nickname", not "Nickname": the json tag wins, options stripped.
	assert.Contains(t, details, "nickname")
	assert.NotContains(t, details, "Nickname")
}

package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("planner", []byte("secret"), 15*time.Minute)

	token, expiresAt, err := issuer.Issue("user-1", "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "user@example.com", id.Email)
	assert.Equal(t, expiresAt.Unix(), id.ExpiresAt.Unix())
}

func TestIssueRequiresUserID(t *testing.T) {
	issuer := NewIssuer("planner", []byte("secret"), time.Minute)

	_, _, err := issuer.Issue("", "")
	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	token, _, err := NewIssuer("planner", []byte("secret"), time.Minute).Issue("user-1", "")
	require.NoError(t, err)

	_, err = NewIssuer("planner", []byte("other"), time.Minute).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	token, _, err := NewIssuer("someone-else", []byte("secret"), time.Minute).Issue("user-1", "")
	require.NoError(t, err)

	_, err = NewIssuer("planner", []byte("secret"), time.Minute).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewIssuer("planner", []byte("secret"), time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := issuer.Issue("user-1", "")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsOtherSigningMethod(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "planner",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("planner", []byte("secret"), time.Minute).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewIssuer("planner", []byte("secret"), time.Minute).Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestIssuer(clock *fakeClock) *Issuer {
	return NewIssuer("test-secret", WithClock(clock.Now))
}

func TestIssueAndVerify(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer(clock)

	signed, err := issuer.IssueVerification(42, "jane@example.com", "UPDATE_EMAIL", "new@example.com", 15*time.Minute)
	require.NoError(t, err)

	claims, err := issuer.Verify(signed, "UPDATE_EMAIL")
	require.NoError(t, err)

	id, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "new@example.com", claims.NewEmail)
	assert.Equal(t, PurposeVerification, claims.Purpose)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, clock.now.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestVerifyRejectsOtherAction(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer := newTestIssuer(clock)

	signed, err := issuer.IssueVerification(1, "jane@example.com", "ACTIVATE_ACCOUNT", "", time.Minute)
	require.NoError(t, err)

	_, err = issuer.Verify(signed, "RESET_PASSWORD")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyExpired(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer := newTestIssuer(clock)

	signed, err := issuer.IssueVerification(1, "jane@example.com", "ACTIVATE_ACCOUNT", "", 15*time.Minute)
	require.NoError(t, err)

	clock.now = clock.now.Add(16 * time.Minute)
	_, err = issuer.Verify(signed, "ACTIVATE_ACCOUNT")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyBadSignature(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	signed, err := NewIssuer("other-secret", WithClock(clock.Now)).
		IssueVerification(1, "jane@example.com", "ACTIVATE_ACCOUNT", "", time.Minute)
	require.NoError(t, err)

	_, err = newTestIssuer(clock).Verify(signed, "ACTIVATE_ACCOUNT")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	issuer := NewIssuer("test-secret")

	_, err := issuer.Verify("not-a-jwt", "ACTIVATE_ACCOUNT")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsOtherSigningMethod(t *testing.T) {
	claims := &Claims{
		Email:   "jane@example.com",
		Action:  "ACTIVATE_ACCOUNT",
		Purpose: PurposeVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewIssuer("test-secret").Verify(signed, "ACTIVATE_ACCOUNT")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRequiresSubject(t *testing.T) {
	claims := &Claims{
		Email:   "jane@example.com",
		Action:  "ACTIVATE_ACCOUNT",
		Purpose: PurposeVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewIssuer("test-secret").Verify(signed, "ACTIVATE_ACCOUNT")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSuccessiveTokensDiffer(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer := newTestIssuer(clock)

	first, err := issuer.IssueVerification(1, "jane@example.com", "ACTIVATE_ACCOUNT", "", time.Minute)
	require.NoError(t, err)
	second, err := issuer.IssueVerification(1, "jane@example.com", "ACTIVATE_ACCOUNT", "", time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestAccessTokens(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer := newTestIssuer(clock)

	access, err := issuer.IssueAccess(7, "jane@example.com", 15*24*time.Hour)
	require.NoError(t, err)

	claims, err := issuer.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, PurposeAccess, claims.Purpose)
	assert.Equal(t, "7", claims.Subject)

	_, err = issuer.Verify(access, "")
	assert.ErrorIs(t, err, ErrInvalid, "access token must not pass as a verification token")

	verification, err := issuer.IssueVerification(7, "jane@example.com", "RESET_PASSWORD", "", time.Minute)
	require.NoError(t, err)
	_, err = issuer.VerifyAccess(verification)
	assert.ErrorIs(t, err, ErrInvalid)
}

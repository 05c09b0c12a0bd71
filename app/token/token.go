// Package token issues and verifies the HS256 JWTs used for email verification
// links and API access.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrExpired = errors.New("token has expired")
	ErrInvalid = errors.New("invalid token")
)

const (
	PurposeVerification = "verification"
	PurposeAccess       = "access"
)

type Claims struct {
	Email    string `json:"email"`
	Action   string `json:"action,omitempty"`
	NewEmail string `json:"new_email,omitempty"`
	Purpose  string `json:"purpose"`
	jwt.RegisteredClaims
}

// AccountID decodes the subject claim.
func (c *Claims) AccountID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalid
	}
	return id, nil
}

type Issuer struct {
	secret []byte
	now    func() time.Time
}

type Option func(*Issuer)

// WithClock overrides the time source used for iat/exp and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func NewIssuer(secret string, opts ...Option) *Issuer {
	i := &Issuer{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IssueVerification signs a single-use token bound to an account and an action.
// newEmail is only set for email change requests.
func (i *Issuer) IssueVerification(accountID uint64, email, action, newEmail string, ttl time.Duration) (string, error) {
	claims := i.claims(accountID, email, PurposeVerification, ttl)
	claims.Action = action
	claims.NewEmail = newEmail
	return i.sign(claims)
}

func (i *Issuer) IssueAccess(accountID uint64, email string, ttl time.Duration) (string, error) {
	return i.sign(i.claims(accountID, email, PurposeAccess, ttl))
}

// Verify checks a verification token and that it was issued for action.
func (i *Issuer) Verify(tokenString, action string) (*Claims, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeVerification || claims.Action != action {
		return nil, ErrInvalid
	}
	return claims, nil
}

func (i *Issuer) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeAccess {
		return nil, ErrInvalid
	}
	return claims, nil
}

func (i *Issuer) claims(accountID uint64, email, purpose string, ttl time.Duration) *Claims {
	now := i.now()
	return &Claims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(accountID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (i *Issuer) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	if claims.Email == "" {
		return nil, ErrInvalid
	}
	if _, err := claims.AccountID(); err != nil {
		return nil, err
	}

	return claims, nil
}

package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

const (
	sessionAudience = "forum"
	resetAudience   = "forum-password-reset"
	issuer          = "forum-identity"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Session is the verified identity of a caller. It is passed explicitly
// to everything that acts on behalf of a user.
type Session struct {
	UserID  string
	Name    string
	Email   string
	Picture string
	Token   string
}

func (s *Session) Profile() Profile {
	return Profile{Name: s.Name, Email: s.Email}
}

type Claims struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session and password-reset tokens.
type Issuer struct {
	secret   []byte
	ttl      time.Duration
	resetTTL time.Duration
	now      func() time.Time
}

func NewIssuer(secret string, ttl, resetTTL time.Duration) *Issuer {
	return &Issuer{
		secret:   []byte(secret),
		ttl:      ttl,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	c := *i
	c.now = now
	return &c
}

// Issue creates a session token for the account.
func (i *Issuer) Issue(a *models.Account) (string, error) {
	claims := Claims{
		Name:             a.DisplayName,
		Email:            a.Email,
		Picture:          a.PhotoURL,
		RegisteredClaims: i.registered(a.ID, sessionAudience, i.ttl),
	}
	return i.sign(claims)
}

// Verify checks a session token and returns the session it proves.
func (i *Issuer) Verify(token string) (*Session, error) {
	claims, err := i.parse(token, sessionAudience)
	if err != nil {
		return nil, err
	}
	return &Session{
		UserID:  claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
		Token:   token,
	}, nil
}

// IssueReset creates a short-lived password reset token bound to the
// account's current password hash, so it stops working once used.
func (i *Issuer) IssueReset(a *models.Account) (string, error) {
	claims := Claims{
		Email:            a.Email,
		Fingerprint:      fingerprint(a.PasswordHash),
		RegisteredClaims: i.registered(a.ID, resetAudience, i.resetTTL),
	}
	return i.sign(claims)
}

// VerifyReset returns the account id a reset token was issued for. The
// caller must check the fingerprint with MatchesReset against the
// stored password hash.
func (i *Issuer) VerifyReset(token string) (*Claims, error) {
	return i.parse(token, resetAudience)
}

func MatchesReset(c *Claims, passwordHash string) bool {
	return c.Fingerprint != "" && c.Fingerprint == fingerprint(passwordHash)
}

func (i *Issuer) registered(subject, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (i *Issuer) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) parse(token, audience string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

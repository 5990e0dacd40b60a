// Package token signs and verifies presenter confirmation links.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
)

const (
	issuer     = "ml-at-ml-log"
	audience   = "confirmation"
	defaultTTL = 14 * 24 * time.Hour
)

// ErrInvalidToken is returned for tokens that are malformed, expired or
// signed with another key.
var ErrInvalidToken = errors.New("invalid confirmation token")

// Claims identify one presenter field of one slot.
type Claims struct {
	jwt.StandardClaims
	Date     string `json:"date"`
	Position int    `json:"pos"`
}

// Confirmation is a verified token payload.
type Confirmation struct {
	Date     time.Time
	Position int
	Name     string
}

// Issuer creates and verifies HS256 confirmation tokens.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewIssuer creates an issuer. A non-positive ttl selects the default.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Issuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer using now as its clock.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	c := *i
	c.now = now
	return &c
}

// Issue signs a token for the presenter at position (1 or 2) on date.
func (i *Issuer) Issue(date time.Time, position int, name string) (string, error) {
	now := i.now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Audience:  audience,
			Subject:   name,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.ttl).Unix(),
		},
		Date:     model.Day(date).Format(model.DateLayout),
		Position: position,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return ss, nil
}

// Verify checks signature, expiry and audience and returns the payload.
func (i *Issuer) Verify(raw string) (Confirmation, error) {
	claims := &Claims{}
	parser := &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}, SkipClaimsValidation: true}
	tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return i.key, nil
	})
	if err != nil || !tok.Valid {
		return Confirmation{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	now := i.now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return Confirmation{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	if !claims.VerifyAudience(audience, true) || !claims.VerifyIssuer(issuer, true) {
		return Confirmation{}, fmt.Errorf("%w: wrong audience or issuer", ErrInvalidToken)
	}
	if claims.Position != 1 && claims.Position != 2 {
		return Confirmation{}, fmt.Errorf("%w: position %d", ErrInvalidToken, claims.Position)
	}
	date, err := model.ParseDate(claims.Date)
	if err != nil {
		return Confirmation{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Confirmation{Date: date, Position: claims.Position, Name: claims.Subject}, nil
}

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// Claims identify either a customer (Subject is the E.164 phone) or a staff
// member scoped to one shop.
type Claims struct {
	Role   string `json:"role"`
	ShopID string `json:"shop_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IsStaff() bool {
	return c != nil && (c.Role == RoleStaff || c.Role == RoleAdmin)
}

// CanManageShop reports whether the token may act on shopID. Admins are not
// shop scoped.
func (c *Claims) CanManageShop(shopID string) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleAdmin {
		return true
	}
	return c.Role == RoleStaff && c.ShopID != "" && c.ShopID == shopID
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if len(strings.TrimSpace(secret)) < 16 {
		return nil, errors.New("session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// IssueCustomer mints a session for a phone that just passed verification.
func (i *Issuer) IssueCustomer(phone string) (string, time.Time, error) {
	return i.Issue(Claims{Role: RoleCustomer, RegisteredClaims: jwt.RegisteredClaims{Subject: phone}})
}

func (i *Issuer) Issue(claims Claims) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims.Issuer = i.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expires)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is how long an issued session token stays valid.
const SessionTTL = 15 * time.Minute

// Claims are the identity fields carried inside a session token.
type Claims struct {
	ID        ID        `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Fullname  string    `json:"fullname"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func claimsFor(acc *Account) Claims {
	return Claims{ID: acc.ID, Username: acc.Username, Email: acc.Email, Fullname: acc.Fullname}
}

type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// sessionClaims is the signed JWT payload.
type sessionClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 session tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &TokenCodec{secret: cfg.Secret, ttl: ttl, issuer: cfg.Issuer, now: time.Now}, nil
}

func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs c's identity fields. IssuedAt and ExpiresAt are set from the
// current time and returned alongside the token.
func (c *TokenCodec) Issue(claims Claims) (string, Claims, error) {
	now := c.now().Truncate(time.Second)
	claims.IssuedAt = now
	claims.ExpiresAt = now.Add(c.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		ID:       string(claims.ID),
		Username: claims.Username,
		Email:    claims.Email,
		Fullname: claims.Fullname,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   string(claims.ID),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks signature, structure and expiry. All failures wrap
// ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	sc := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, sc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || sc.ID == "" || sc.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		ID:        ID(sc.ID),
		Username:  sc.Username,
		Email:     sc.Email,
		Fullname:  sc.Fullname,
		IssuedAt:  sc.IssuedAt.Time,
		ExpiresAt: sc.ExpiresAt.Time,
	}, nil
}

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"ticketnow/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshTokenBytes = 64

var ErrInvalidToken = errors.New("invalid token")

type Config struct {
	Secret          string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Claims carried by every access token
type Claims struct {
	UserID   int64         `json:"uid"`
	Username string        `json:"name"`
	Roles    []models.Role `json:"roles"`
	jwt.RegisteredClaims
}

func (c *Claims) HasRole(role models.Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenManager issues and verifies HS256 access tokens
type TokenManager struct {
	cfg Config
	key []byte
}

func NewTokenManager(cfg Config) *TokenManager {
	return &TokenManager{cfg: cfg, key: []byte(cfg.Secret)}
}

func (m *TokenManager) RefreshTokenTTL() time.Duration {
	return m.cfg.RefreshTokenTTL
}

// Issue signs an access token for the user. Every token carries a random jti.
func (m *TokenManager) Issue(user *models.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.cfg.AccessTokenTTL)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(user.ID),
			Issuer:    m.cfg.Issuer,
			Audience:  jwt.ClaimStrings{m.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, issuer, audience and expiry.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	return m.parse(tokenString,
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithExpirationRequired(),
	)
}

// ParseExpired verifies an access token whose lifetime may be over. It is
// used by the refresh flow, where only the signature and origin matter.
func (m *TokenManager) ParseExpired(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if claims.Issuer != m.cfg.Issuer {
		return nil, ErrInvalidToken
	}
	aud, _ := claims.GetAudience()
	for _, a := range aud {
		if a == m.cfg.Audience {
			return claims, nil
		}
	}
	return nil, ErrInvalidToken
}

func (m *TokenManager) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// NewRefreshToken returns a high-entropy refresh token
func NewRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// HashRefreshToken returns the digest persisted instead of the token itself
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the bcrypt cost factor for the operator hash.
	DefaultBcryptCost = 12

	// DefaultTokenDuration is the access token lifetime.
	DefaultTokenDuration = 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrTokenExpired       = errors.New("auth: token expired")
)

// Claims are the JWT claims for the single operator account.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager authenticates the single operator and issues HS256 tokens.
// When Enabled is false (no secret configured) the API runs open.
type Manager struct {
	secret        []byte
	username      string
	passwordHash  string
	tokenDuration time.Duration
}

// NewManager creates an auth manager. An empty secret disables auth.
func NewManager(secret, username, passwordHash string, tokenDuration time.Duration) *Manager {
	if tokenDuration == 0 {
		tokenDuration = DefaultTokenDuration
	}
	return &Manager{
		secret:        []byte(secret),
		username:      username,
		passwordHash:  passwordHash,
		tokenDuration: tokenDuration,
	}
}

// Enabled reports whether authentication is configured.
func (m *Manager) Enabled() bool {
	return len(m.secret) > 0 && m.username != "" && m.passwordHash != ""
}

// HashPassword hashes a plaintext password for storage in the config.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// Login verifies the operator credentials and returns a signed token.
func (m *Manager) Login(username, password string) (string, error) {
	if !m.Enabled() {
		return "", ErrInvalidCredentials
	}
	if username != m.username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "crypto-portfolio-bot",
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks a token and returns its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

package httpapi

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/internal/domain"
)

const sessionSubject = "shop"

// AuthManager is the session gate. There is one shop password and a valid
// token is the whole of the logged-in state; there are no roles.
type AuthManager struct {
	secret       []byte
	tokenTTL     time.Duration
	passwordHash string
	now          func() time.Time
}

func NewAuthManager(secret string, tokenTTL time.Duration, password string) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}

	password = strings.TrimSpace(password)
	if !isPasswordHash(password) && password != "" {
		if hashed, err := hashPassword(password); err == nil {
			password = hashed
		}
	}

	return &AuthManager{
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
		passwordHash: password,
		now:          time.Now,
	}
}

func (a *AuthManager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	if !verifyPassword(a.passwordHash, req.Password) {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}

	expiresAt := a.now().UTC().Add(a.tokenTTL)
	token, err := a.sign(expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) error {
	claims := &jwtlib.RegisteredClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return errors.New("invalid or expired token")
	}
	if sub, err := claims.GetSubject(); err != nil || sub != sessionSubject {
		return errors.New("invalid token subject")
	}
	return nil
}

func (a *AuthManager) sign(expiresAt time.Time) (string, error) {
	claims := jwtlib.RegisteredClaims{
		Subject:   sessionSubject,
		IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
		ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		Issuer:    "pharmapos",
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that are malformed, forged or past
// their absolute lifetime.
var ErrInvalidToken = errors.New("invalid session token")

// ErrTokenExpired additionally marks tokens that were genuine but outlived
// their absolute lifetime.
var ErrTokenExpired = jwt.ErrTokenExpired

// SessionClaims identify a server-side session and its owner.
type SessionClaims struct {
	SessionID uuid.UUID
	UserID    int64
	ExpiresAt time.Time
}

// TokenService signs and verifies session tokens. The token only proves
// that the server issued it; whether the session is still alive is decided
// by the session store.
type TokenService struct {
	jwtSecret []byte
	maxAge    time.Duration
	now       func() time.Time
}

// NewTokenService creates a token service. maxAge bounds the lifetime of
// every token regardless of activity.
func NewTokenService(secret string, maxAge time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret must not be empty")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("token max age must be positive")
	}
	return &TokenService{
		jwtSecret: []byte(secret),
		maxAge:    maxAge,
		now:       time.Now,
	}, nil
}

// MaxAge returns the absolute token lifetime.
func (s *TokenService) MaxAge() time.Duration {
	return s.maxAge
}

// NewToken signs a token for the given session.
func (s *TokenService) NewToken(sessionID uuid.UUID, userID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        sessionID.String(),
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies the signature and lifetime of tokenString and
// returns the session it refers to.
func (s *TokenService) ValidateToken(tokenString string) (*SessionClaims, error) {
	return s.parse(tokenString, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
}

// ParseSigned verifies only the signature of tokenString. Tokens past their
// lifetime are accepted, which lets logout find the session they name.
func (s *TokenService) ParseSigned(tokenString string) (*SessionClaims, error) {
	return s.parse(tokenString, jwt.WithoutClaimsValidation())
}

func (s *TokenService) parse(tokenString string, opts ...jwt.ParserOption) (*SessionClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: jti is not a uuid", ErrInvalidToken)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: sub is not a user id", ErrInvalidToken)
	}

	out := &SessionClaims{SessionID: sessionID, UserID: userID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

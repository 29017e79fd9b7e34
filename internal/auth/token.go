package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"notification_service/internal/models"
)

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

type Claims struct {
	UserID int64     `json:"user_id"`
	Kind   TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService issues and verifies signed bearer tokens. Tokens are
// stateless: there is no revocation list, a token stays valid until expiry.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *TokenService) Issue(userID int64, kind TokenKind) (string, error) {
	ttl := s.accessTTL
	if kind == TokenKindRefresh {
		ttl = s.refreshTTL
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

func (s *TokenService) IssuePair(userID int64) (TokenPair, error) {
	access, err := s.Issue(userID, TokenKindAccess)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.Issue(userID, TokenKindRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks the signature and expiry, then requires the claim kind to
// match expectedKind. Callers collapse every failure to a uniform 401.
func (s *TokenService) Verify(tokenStr string, expectedKind TokenKind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, models.ErrTokenInvalid
	}

	if claims.Kind != expectedKind {
		return nil, models.ErrTokenKindMismatch
	}

	return claims, nil
}

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/model"
)

// JWTService issues and validates portal tokens
type JWTService interface {
	GenerateAccessToken(profile *model.Profile) (string, error)
	GenerateRefreshToken(profile *model.Profile) (string, error)
	ValidateAccessToken(token string) (*model.TokenClaims, error)
	ValidateRefreshToken(token string) (*model.TokenClaims, error)
}

// Claims is the JWT payload for both token kinds
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Region    string `json:"region"`
	TokenKind string `json:"token_kind"`
}

type Config struct {
	Secret        string
	RefreshSecret string
	Expiry        time.Duration
	RefreshExpiry time.Duration
}

type jwtService struct {
	cfg Config
}

func NewJWTService(cfg Config) JWTService {
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	if cfg.RefreshExpiry <= 0 {
		cfg.RefreshExpiry = 30 * 24 * time.Hour
	}
	return &jwtService{cfg: cfg}
}

func (s *jwtService) GenerateAccessToken(profile *model.Profile) (string, error) {
	return s.sign(profile, "access", []byte(s.cfg.Secret), s.cfg.Expiry)
}

func (s *jwtService) GenerateRefreshToken(profile *model.Profile) (string, error) {
	return s.sign(profile, "refresh", []byte(s.cfg.RefreshSecret), s.cfg.RefreshExpiry)
}

func (s *jwtService) ValidateAccessToken(token string) (*model.TokenClaims, error) {
	return s.parse(token, "access", []byte(s.cfg.Secret))
}

func (s *jwtService) ValidateRefreshToken(token string) (*model.TokenClaims, error) {
	return s.parse(token, "refresh", []byte(s.cfg.RefreshSecret))
}

func (s *jwtService) sign(profile *model.Profile, kind string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		UserID:    profile.ID.String(),
		Email:     profile.Email,
		Role:      profile.Role,
		Region:    profile.Region,
		TokenKind: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) parse(tokenStr, kind string, secret []byte) (*model.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.TokenKind != kind {
		return nil, fmt.Errorf("wrong token kind")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	return &model.TokenClaims{
		UserID: userID,
		Email:  claims.Email,
		Role:   claims.Role,
		Region: claims.Region,
	}, nil
}

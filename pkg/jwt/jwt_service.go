package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/internal/utils"

	"github.com/golang-jwt/jwt/v4"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type (
	JWTService interface {
		GenerateTokenPair(userID string) (domain.TokenPairResponse, error)
		GetUserIDByToken(token string) (string, error)
	}

	userClaims struct {
		UserID string `json:"user_id"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
	}
)

func NewJWTService() JWTService {
	return &jwtService{
		secretKey: utils.GetConfig("JWT_SECRET"),
		issuer:    "ocr-backend",
	}
}

func (j *jwtService) GenerateTokenPair(userID string) (domain.TokenPairResponse, error) {
	accessToken, err := j.generateToken(userID, accessTokenTTL)
	if err != nil {
		return domain.TokenPairResponse{}, err
	}

	refreshToken, err := j.generateToken(userID, refreshTokenTTL)
	if err != nil {
		return domain.TokenPairResponse{}, err
	}

	return domain.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

func (j *jwtService) generateToken(userID string, ttl time.Duration) (string, error) {
	claims := userClaims{
		userID,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    j.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

func (j *jwtService) parseToken(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) GetUserIDByToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &userClaims{}, j.parseToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return "", domain.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*userClaims)
	if !ok || claims.UserID == "" {
		return "", domain.ErrTokenInvalid
	}
	return claims.UserID, nil
}

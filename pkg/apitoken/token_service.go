package apitoken

import (
	"context"
	"errors"
	"time"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	TokenService interface {
		CreateToken(ctx context.Context, userID string, req domain.CreateTokenRequest) (domain.CreateTokenResponse, error)
		// ResolveUser maps a presented API token to its owner, rejecting
		// unknown and expired tokens.
		ResolveUser(ctx context.Context, token string) (string, error)
	}

	tokenService struct {
		tokenRepository TokenRepository
	}
)

func NewTokenService(tokenRepository TokenRepository) TokenService {
	return &tokenService{tokenRepository: tokenRepository}
}

func (s *tokenService) CreateToken(ctx context.Context, userID string, req domain.CreateTokenRequest) (domain.CreateTokenResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.CreateTokenResponse{}, domain.ErrParseUUID
	}

	var expiresAt *time.Time
	if req.DaysValid != nil {
		expiry := time.Now().UTC().AddDate(0, 0, *req.DaysValid)
		expiresAt = &expiry
	}

	token := &entities.APIToken{
		Token:     uuid.New().String(),
		UserID:    userUUID,
		ExpiresAt: expiresAt,
	}
	if err := s.tokenRepository.CreateToken(ctx, token); err != nil {
		return domain.CreateTokenResponse{}, err
	}

	return domain.CreateTokenResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func (s *tokenService) ResolveUser(ctx context.Context, token string) (string, error) {
	record, err := s.tokenRepository.GetToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrAPITokenNotFound
		}
		return "", err
	}

	if record.ExpiresAt != nil && record.ExpiresAt.Before(time.Now().UTC()) {
		return "", domain.ErrAPITokenExpired
	}
	return record.UserID.String(), nil
}

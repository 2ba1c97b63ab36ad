package apitoken

import (
	"context"

	"github.com/Lokhmat/ocr-backend/entities"

	"gorm.io/gorm"
)

type (
	TokenRepository interface {
		CreateToken(ctx context.Context, token *entities.APIToken) error
		GetToken(ctx context.Context, token string) (*entities.APIToken, error)
	}

	tokenRepository struct {
		db *gorm.DB
	}
)

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) CreateToken(ctx context.Context, token *entities.APIToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepository) GetToken(ctx context.Context, token string) (*entities.APIToken, error) {
	var apiToken entities.APIToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&apiToken).Error; err != nil {
		return nil, err
	}
	return &apiToken, nil
}

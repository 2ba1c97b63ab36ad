package user

import (
	"context"
	"errors"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/entities"
	"github.com/Lokhmat/ocr-backend/pkg/jwt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.TokenPairResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.TokenPairResponse, error)
		Refresh(ctx context.Context, req domain.RefreshRequest) (domain.TokenPairResponse, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.TokenPairResponse, error) {
	if _, err := s.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return domain.TokenPairResponse{}, domain.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.TokenPairResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.TokenPairResponse{}, err
	}

	newUser := &entities.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.userRepository.CreateUser(ctx, newUser); err != nil {
		return domain.TokenPairResponse{}, err
	}

	return s.jwtService.GenerateTokenPair(newUser.ID.String())
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.TokenPairResponse, error) {
	existing, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TokenPairResponse{}, domain.ErrInvalidCredentials
		}
		return domain.TokenPairResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(req.Password)) != nil {
		return domain.TokenPairResponse{}, domain.ErrInvalidCredentials
	}

	return s.jwtService.GenerateTokenPair(existing.ID.String())
}

func (s *userService) Refresh(ctx context.Context, req domain.RefreshRequest) (domain.TokenPairResponse, error) {
	userID, err := s.jwtService.GetUserIDByToken(req.RefreshToken)
	if err != nil {
		return domain.TokenPairResponse{}, domain.ErrInvalidRefreshToken
	}

	// The user may have been deleted since the refresh token was issued.
	if _, err := s.userRepository.GetUserByID(ctx, userID); err != nil {
		return domain.TokenPairResponse{}, domain.ErrInvalidRefreshToken
	}

	return s.jwtService.GenerateTokenPair(userID)
}

package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parkingmate/service-parking/internal/common/auth"
	"github.com/parkingmate/service-parking/internal/common/domain"
	userDomain "github.com/parkingmate/service-parking/internal/domain/user"
)

// SignUpRequest is the request DTO for registering an account.
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,max=100"`
}

// LoginRequest is the request DTO for password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserDTO is the API response representation of an account.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenDTO is a freshly issued token pair.
type TokenDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserService handles account use cases and resolves caller identities.
type UserService struct {
	repo   userDomain.UserRepository
	jwt    *auth.JWTManager
	logger *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo userDomain.UserRepository, jwt *auth.JWTManager, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, jwt: jwt, logger: logger}
}

var _ IdentityResolver = (*UserService)(nil)

// SignUp registers a new account.
func (s *UserService) SignUp(ctx context.Context, req SignUpRequest) (*UserDTO, error) {
	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewConflictError("email already registered")
	}

	u, err := userDomain.NewUser(req.Email, req.Password, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID().String()))
	return toUserDTO(u), nil
}

// Login checks credentials and issues a token pair whose subject is the e-mail.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*TokenDTO, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewUnauthorizedError("invalid email or password")
		}
		return nil, err
	}
	if !u.CheckPassword(req.Password) {
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}
	return s.issueTokens(u.Email())
}

// Refresh issues a new token pair from a valid refresh token.
func (s *UserService) Refresh(ctx context.Context, req RefreshRequest) (*TokenDTO, error) {
	claims, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, domain.NewUnauthorizedError("invalid or expired refresh token")
	}
	u, err := s.Resolve(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(u.Email())
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, identity string) (*UserDTO, error) {
	u, err := s.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	return toUserDTO(u), nil
}

// Resolve maps a token subject to its user; unknown identities are NotFound.
func (s *UserService) Resolve(ctx context.Context, identity string) (*userDomain.User, error) {
	return s.repo.FindByEmail(ctx, identity)
}

func (s *UserService) issueTokens(subject string) (*TokenDTO, error) {
	access, err := s.jwt.GenerateAccessToken(subject)
	if err != nil {
		return nil, domain.NewInternalError("failed to issue token", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(subject)
	if err != nil {
		return nil, domain.NewInternalError("failed to issue token", err)
	}
	return &TokenDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwt.AccessTTL().Seconds()),
	}, nil
}

func toUserDTO(u *userDomain.User) *UserDTO {
	return &UserDTO{
		ID:        u.ID(),
		Email:     u.Email(),
		Name:      u.Name(),
		CreatedAt: u.CreatedAt(),
	}
}

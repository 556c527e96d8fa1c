package identity

import (
	"context"
	"errors"
	"time"

	"github.com/storepos/backend/internal/domain/identity"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var errInvalidCredentials = shared.NewDomainError(shared.CodeUnauthorized, "Invalid username or password")

// AuthService signs cashiers in and resolves session tokens
type AuthService struct {
	directory  identity.CashierDirectory
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	directory identity.CashierDirectory,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if blacklist == nil {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	return &AuthService{
		directory:  directory,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Login checks credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	cashier, err := s.directory.FindByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Warn("Login for unknown user", zap.String("username", input.Username), zap.String("ip", input.IP))
		return nil, errInvalidCredentials
	}
	if !cashier.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", input.Username), zap.String("ip", input.IP))
		return nil, errInvalidCredentials
	}

	token, err := s.jwtService.GenerateAccessToken(auth.GenerateTokenInput{
		UserID:      cashier.ID,
		Username:    cashier.Username,
		DisplayName: cashier.DisplayNameOrUsername(),
		Role:        string(cashier.Role),
	})
	if err != nil {
		s.logger.Error("Failed to sign session token", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Cashier signed in",
		zap.String("user_id", cashier.ID),
		zap.String("role", string(cashier.Role)),
	)
	return &LoginResult{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		User:        toUserInfo(cashier),
	}, nil
}

// Authenticate resolves a bearer token to the cashier behind it. Revoked
// tokens and accounts removed from configuration are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Actor, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, shared.NewDomainError(shared.CodeUnauthorized, "Session has expired")
		}
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid session token")
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, shared.NewUpstreamUnavailable("session store unavailable", err)
	}
	if revoked {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Session has been signed out")
	}

	cashier, err := s.directory.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Account no longer exists")
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &Actor{
		UserInfo:  toUserInfo(cashier),
		TokenID:   claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout revokes the actor's token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, actor *Actor) error {
	if actor == nil || actor.TokenID == "" {
		return nil
	}
	ttl := time.Until(actor.ExpiresAt)
	if err := s.blacklist.AddToBlacklist(ctx, actor.TokenID, ttl); err != nil {
		s.logger.Error("Failed to revoke session token", zap.String("user_id", actor.ID), zap.Error(err))
		return shared.NewUpstreamUnavailable("session store unavailable", err)
	}
	s.logger.Info("Cashier signed out", zap.String("user_id", actor.ID))
	return nil
}

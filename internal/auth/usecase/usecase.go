package usecase

import (
	"context"

	authdomain "devboard-backend/internal/auth/domain"
	authdto "devboard-backend/internal/auth/dto"
)

// AuthUsecase defines the interface for authentication business logic
type AuthUsecase interface {
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)

	// GitHubAuthURL starts the GitHub sign-in flow with a one-time state
	// nonce (prefixed "login:" to distinguish it from account-link states).
	GitHubAuthURL(ctx context.Context) (string, error)

	// GitHubSignIn completes the sign-in flow: consumes the nonce, exchanges
	// the code, finds or creates the user by their GitHub email and links the
	// GitHub connection.
	GitHubSignIn(ctx context.Context, code, state string) (*authdto.TokenResponse, error)
}
